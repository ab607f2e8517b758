// Package http implements the handlers of the read-only query API.
// Handlers stay thin: they parse and validate the request, call the
// service layer and render the result with go-chi/render.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Storage
//
// # Error Handling
//
// Every error is answered with an RFC 7807 problem document produced by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/operator/not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Operadora não encontrada",
//	    "instance": "/api/operadoras/00000000000000"
//	}
//
// # Routes
//
//	GET /api/operadoras?page=&limit=&search=
//	GET /api/operadoras/{cnpj}
//	GET /api/operadoras/{cnpj}/despesas
//	GET /api/estatisticas
//	GET /api/health
//	GET /metrics
package http
