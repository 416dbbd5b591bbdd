package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "IDP Session API",
        "description": "Session and refresh token lifecycle engine for the identity provider",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Admin and self-service session management"},
        {"name": "Grants", "description": "Service-to-service grant lifecycle surface"},
        {"name": "Audit", "description": "Lifecycle audit trail"}
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
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/api/v1/users/{id}/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions for a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Revoke every active session of a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/users/{id}/sessions/{authorizationId}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Revoke one session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "authorizationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Revoked"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/audit-events": {
            "get": {
                "tags": ["Audit"],
                "summary": "List recent audit events",
                "parameters": [
                    {"name": "userId", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/internal/v1/sessions": {
            "post": {
                "tags": ["Grants"],
                "summary": "Register a shadow session for a new grant",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/internal/v1/sessions/{authorizationId}/rotate": {
            "post": {
                "tags": ["Grants"],
                "summary": "Rotate the refresh token for a grant",
                "parameters": [
                    {"name": "authorizationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RotateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/internal/v1/sessions/{authorizationId}/role": {
            "post": {
                "tags": ["Grants"],
                "summary": "Switch the active role of an unused session",
                "parameters": [
                    {"name": "authorizationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoleSwitchRequest"}}
                ],
                "responses": {
                    "204": {"description": "Switched"},
                    "409": {"description": "Already rotated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/internal/v1/sessions/{authorizationId}/claims": {
            "get": {
                "tags": ["Grants"],
                "summary": "Assemble claims for an active session",
                "parameters": [
                    {"name": "authorizationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session not usable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/internal/v1/persons/{id}/revoke": {
            "post": {
                "tags": ["Grants"],
                "summary": "Cascade revocation across every account of a person",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RevokeForPersonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown person", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "authorizationId": {"type": "string"},
                "clientId": {"type": "string"},
                "clientName": {"type": "string"},
                "roleId": {"type": "string"},
                "refreshToken": {"type": "string"},
                "deviceInfo": {"type": "string"},
                "ipAddress": {"type": "string"},
                "userAgent": {"type": "string"}
            },
            "required": ["userId", "authorizationId", "clientId", "roleId", "refreshToken"]
        },
        "RotateRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"},
                "ipAddress": {"type": "string"},
                "userAgent": {"type": "string"}
            },
            "required": ["refreshToken"]
        },
        "RoleSwitchRequest": {
            "type": "object",
            "properties": {
                "roleId": {"type": "string"}
            },
            "required": ["roleId"]
        },
        "RevokeForPersonRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
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
                "requestId": {"type": "string"}
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
