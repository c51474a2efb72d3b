// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/upload": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload product photos and videos for a SKU",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "formData", "required": true},
                    {"type": "file", "description": "Photos and videos (multiple files allowed)", "name": "files", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.UploadResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/files/{sku}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List stored files for a SKU",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FilesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/images/{sku}/{file}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Serve a stored file",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "file", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/process": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Process a SKU batch",
                "parameters": [
                    {"description": "Batch to process", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProcessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ProcessResponse"}}
                }
            }
        },
        "/process/{sku}/retry": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Retry failed files of a SKU batch",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProcessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ProcessResponse"}}
                }
            }
        },
        "/ledger/{sku}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Get the stored ledger for a SKU",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProcessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/progress/{sku}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["text/event-stream"],
                "tags": ["progress"],
                "summary": "Stream batch progress",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProgressEvent"}}
                }
            }
        },
        "/status/{sku}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["progress"],
                "summary": "Get the current state of a SKU",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/download": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/zip"],
                "tags": ["delivery"],
                "summary": "Download a SKU's processed files as ZIP",
                "parameters": [
                    {"description": "Download options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DownloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/telegram": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["delivery"],
                "summary": "Send a SKU's archive to Telegram",
                "parameters": [
                    {"description": "Telegram delivery", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.TelegramRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TelegramResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cleanup": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["delivery"],
                "summary": "Remove a SKU's files and ledger",
                "parameters": [
                    {"description": "SKU to clean up", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CleanupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CleanupResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.MediaItem": {
            "type": "object",
            "required": ["id", "originalName", "sourceLocation", "type"],
            "properties": {
                "id": {"type": "string"},
                "originalName": {"type": "string"},
                "type": {"type": "string", "enum": ["image", "video"]},
                "sourceLocation": {"type": "string"},
                "contentType": {"type": "string"}
            }
        },
        "models.ProcessResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "originalName": {"type": "string"},
                "finalName": {"type": "string"},
                "type": {"type": "string", "enum": ["image", "video"]},
                "sequence": {"type": "integer"},
                "status": {"type": "string", "enum": ["done", "error", "skipped"]},
                "error": {"type": "string"},
                "sourceLocation": {"type": "string"},
                "outputLocation": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "models.StatusCounts": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "done": {"type": "integer"},
                "error": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        },
        "models.ProcessRequest": {
            "type": "object",
            "required": ["files", "sku"],
            "properties": {
                "sku": {"type": "string"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/models.MediaItem"}}
            }
        },
        "models.ProcessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "sku": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.ProcessResult"}},
                "counts": {"$ref": "#/definitions/models.StatusCounts"},
                "error": {"type": "string"}
            }
        },
        "models.UploadResponse": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/models.MediaItem"}},
                "rejected": {"type": "array", "items": {"$ref": "#/definitions/models.RejectedFile"}}
            }
        },
        "models.RejectedFile": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "models.FileInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "location": {"type": "string"},
                "size": {"type": "integer"},
                "modTime": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "models.FilesResponse": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/models.FileInfo"}}
            }
        },
        "models.ProgressEvent": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "sku": {"type": "string"},
                "id": {"type": "string"},
                "finalName": {"type": "string"},
                "error": {"type": "string"},
                "total": {"type": "integer"},
                "completed": {"type": "integer"},
                "timestamp": {"type": "string"}
            }
        },
        "models.StatusResponse": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"},
                "running": {"type": "boolean"},
                "lastEvent": {"$ref": "#/definitions/models.ProgressEvent"},
                "counts": {"$ref": "#/definitions/models.StatusCounts"},
                "updatedAt": {"type": "string"},
                "failed": {"type": "array", "items": {"$ref": "#/definitions/models.ProcessResult"}}
            }
        },
        "models.DownloadRequest": {
            "type": "object",
            "required": ["sku"],
            "properties": {
                "sku": {"type": "string"},
                "includeOriginals": {"type": "boolean"},
                "cleanup": {"type": "boolean"}
            }
        },
        "models.TelegramRequest": {
            "type": "object",
            "required": ["sku"],
            "properties": {
                "sku": {"type": "string"},
                "chatId": {"type": "string"},
                "cleanup": {"type": "boolean"}
            }
        },
        "models.TelegramResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "sku": {"type": "string"},
                "fileName": {"type": "string"},
                "files": {"type": "integer"}
            }
        },
        "models.CleanupRequest": {
            "type": "object",
            "required": ["sku"],
            "properties": {
                "sku": {"type": "string"}
            }
        },
        "models.CleanupResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "sku": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "storage": {"type": "string"},
                "ledger": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Photo SKU Backend API",
	Description:      "Batch background removal for product photos. Files are uploaded per SKU, named {sku}_{NNN}, sent through PhotoRoom with bounded concurrency, and delivered as ZIP or to Telegram.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
