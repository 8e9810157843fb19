// Package docs registers the relay's OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/upload-to-bitrix": {
            "post": {
                "description": "Stores each file in CRM disk storage and attaches the results to the deal. Files the storage rejects are written to the deal's file field instead.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["relay"],
                "summary": "Relay files to a Bitrix24 deal",
                "parameters": [
                    {
                        "description": "Files, deal id and webhook prefix",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/relay.UploadRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Per-file outcomes", "schema": {"$ref": "#/definitions/services.RelayResult"}},
                    "400": {"description": "Malformed request", "schema": {"$ref": "#/definitions/responses.HTTPError"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/responses.HTTPError"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/responses.HTTPError"}},
                    "500": {"description": "Undecodable body", "schema": {"$ref": "#/definitions/responses.InternalError"}}
                }
            }
        }
    },
    "definitions": {
        "relay.UploadRequest": {
            "type": "object",
            "properties": {
                "dealId": {"type": "string", "example": "42"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/services.FileInput"}},
                "webhook": {"type": "string", "example": "https://portal.bitrix24.ru/rest/1/token/"}
            }
        },
        "services.FileInput": {
            "type": "object",
            "properties": {
                "data": {"type": "string"},
                "name": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "services.RelayResult": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"$ref": "#/definitions/services.ErrorRecord"}},
                "files": {"type": "array", "items": {"$ref": "#/definitions/services.UploadedFile"}},
                "success": {"type": "boolean", "example": true},
                "uploaded": {"type": "integer", "example": 3}
            }
        },
        "services.UploadedFile": {
            "type": "object",
            "properties": {
                "base64": {"type": "string"},
                "downloadUrl": {"type": "string"},
                "fallback": {"type": "boolean"},
                "id": {"type": "string", "example": "10"},
                "name": {"type": "string", "example": "photo.jpg"},
                "size": {"type": "integer", "example": 20480}
            }
        },
        "services.ErrorRecord": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "file": {"type": "string", "example": "photo.jpg"},
                "step": {"type": "string", "example": "attachment"}
            }
        },
        "responses.HTTPError": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "No files provided"}}
        },
        "responses.InternalError": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Internal server error"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "CRM upload relay",
	Description:      "Relays client file uploads to Bitrix24 deals.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
