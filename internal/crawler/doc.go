// Package crawler downloads the ANS accounting disclosure archives.
//
// It walks the open-data directory listing: from the base page it follows
// every link ending with the section suffix, from each section page every
// link ending with the year suffix, and downloads every link on the year
// page ending with the file suffix. Listing pages must answer 200; a failed
// archive download is logged and counted without stopping the others.
package crawler
