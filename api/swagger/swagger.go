package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gym Management API",
        "description": "Access-log and analytics backend for the gym dashboard",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication boundary"},
        {"name": "Access Logs", "description": "Access log listing, analytics and retention"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for an access token",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/access-logs": {
            "get": {
                "tags": ["Access Logs"],
                "summary": "Paginated event listing, newest first",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "severity", "in": "query", "type": "string"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "integer"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Page of events"}
                }
            }
        },
        "/api/v1/access-logs/analytics": {
            "get": {
                "tags": ["Access Logs"],
                "summary": "Multi-dimensional analytics summary for a named window",
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "enum": ["1h", "24h", "7d", "30d"]}
                ],
                "responses": {
                    "200": {"description": "Summary"}
                }
            }
        },
        "/api/v1/access-logs/analytics/export": {
            "get": {
                "tags": ["Access Logs"],
                "summary": "Analytics summary as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/api/v1/access-logs/users/{id}": {
            "get": {
                "tags": ["Access Logs"],
                "summary": "One actor's own events, newest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Events"}
                }
            }
        },
        "/api/v1/access-logs/cleanup": {
            "delete": {
                "tags": ["Access Logs"],
                "summary": "Retention sweep: hard-delete events older than N days",
                "parameters": [
                    {"name": "days", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted row count"},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/api/v1/access-logs/provision": {
            "post": {
                "tags": ["Access Logs"],
                "summary": "Create the event store schema",
                "responses": {
                    "204": {"description": "Provisioned"},
                    "403": {"description": "Admin role required"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
