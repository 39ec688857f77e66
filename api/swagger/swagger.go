package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Distruct Note API",
        "description": "Self-destructing note service with view limits, expiry and optional password protection",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Notes", "description": "Note lifecycle"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/notes": {
            "post": {
                "tags": ["Notes"],
                "summary": "Create note",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty content or invalid view count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notes/{id}": {
            "get": {
                "tags": ["Notes"],
                "summary": "Access note",
                "description": "Consumes one view. The last permitted view destroys the note.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "password", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Password required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Invalid password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found, destroyed or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notes/{id}/meta": {
            "get": {
                "tags": ["Notes"],
                "summary": "Probe note",
                "description": "Reports existence and password protection without consuming a view.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notes/view": {
            "get": {
                "tags": ["Notes"],
                "summary": "Redeem view token",
                "description": "Re-renders an already-consumed view from its short-lived token.",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Token expired or invalid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateNoteRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "password": {"type": "string"},
                "max_views": {"type": "integer", "minimum": 1, "maximum": 100}
            },
            "required": ["content"]
        },
        "NoteCreated": {
            "type": "object",
            "properties": {
                "note_id": {"type": "string"},
                "url": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "NoteView": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "current_views": {"type": "integer"},
                "max_views": {"type": "integer"},
                "destroyed": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"},
                "expires_at": {"type": "string", "format": "date-time"},
                "view_token": {"type": "string"}
            }
        },
        "NoteMeta": {
            "type": "object",
            "properties": {
                "exists": {"type": "boolean"},
                "requires_password": {"type": "boolean"}
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
