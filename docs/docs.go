// Package docs holds the generated OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/gpuindex/main.go
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
        "/api/gpus": {
            "get": {
                "produces": ["application/json"],
                "tags": ["GPUs"],
                "summary": "List tracked GPUs",
                "parameters": [
                    {"type": "string", "description": "NVIDIA, AMD or other", "name": "brand", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/gpus/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["GPUs"],
                "summary": "Get one GPU",
                "parameters": [
                    {"type": "integer", "description": "GPU ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.GPU"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/gpus/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["GPUs"],
                "summary": "Price observations for one GPU",
                "parameters": [
                    {"type": "integer", "description": "GPU ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Relative range such as 24h or 7d", "name": "range", "in": "query"},
                    {"type": "string", "description": "RFC3339 start", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339 end", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Maximum rows", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/gpus/{id}/average": {
            "get": {
                "produces": ["application/json"],
                "tags": ["GPUs"],
                "summary": "Trailing average price for one GPU",
                "parameters": [
                    {"type": "integer", "description": "GPU ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Window in days, 1 to 30", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/index": {
            "get": {
                "description": "Composite indices, 24h/7d/30d changes and 7-day volatility, rounded to 2 decimals.",
                "produces": ["application/json"],
                "tags": ["Index"],
                "summary": "Current GPU price indices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IndexSnapshot"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fetches every provider, merges by priority and refreshes stored prices.",
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Run a price sync",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SyncResponse"}},
                    "401": {"description": "Missing or invalid bearer token", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "A sync is already running", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Secret not configured or catalog unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/sync/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Recent sync runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum rows", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.SyncResponse": {
            "type": "object",
            "properties": {
                "failedGPUs": {"type": "array", "items": {"type": "string"}},
                "notFoundGPUs": {"type": "array", "items": {"type": "string"}},
                "stats": {"$ref": "#/definitions/models.SyncStats"},
                "success": {"type": "boolean"},
                "updates": {"type": "array", "items": {"$ref": "#/definitions/models.PriceUpdate"}}
            }
        },
        "models.GPU": {
            "type": "object",
            "properties": {
                "availability": {"type": "string"},
                "brand": {"type": "string"},
                "created_at": {"type": "string"},
                "current_price": {"type": "number"},
                "id": {"type": "integer"},
                "model": {"type": "string"},
                "msrp": {"type": "number"},
                "specs": {"$ref": "#/definitions/models.GPUSpecs"},
                "updated_at": {"type": "string"}
            }
        },
        "models.GPUSpecs": {
            "type": "object",
            "properties": {
                "compute_score": {"type": "number"},
                "cpu_cores": {"type": "number"},
                "data_sources": {"type": "array", "items": {"type": "string"}},
                "disk_gb": {"type": "number"},
                "network_mbps": {"type": "number"},
                "price_max": {"type": "number"},
                "price_min": {"type": "number"},
                "provider_count": {"type": "integer"},
                "ram_gb": {"type": "number"},
                "reliability": {"type": "number"}
            }
        },
        "models.IndexSnapshot": {
            "type": "object",
            "properties": {
                "amdIndex": {"type": "number"},
                "change24h": {"type": "number"},
                "change30d": {"type": "number"},
                "change7d": {"type": "number"},
                "gpuComputeIndex": {"type": "number"},
                "highEndIndex": {"type": "number"},
                "midRangeIndex": {"type": "number"},
                "nvidiaIndex": {"type": "number"},
                "timestamp": {"type": "string"},
                "volatility": {"type": "number"}
            }
        },
        "models.PriceUpdate": {
            "type": "object",
            "properties": {
                "changePercent": {"type": "number"},
                "gpu": {"type": "string"},
                "newPrice": {"type": "number"},
                "oldPrice": {"type": "number"},
                "sampleSize": {"type": "integer"},
                "source": {"type": "string"}
            }
        },
        "models.SyncStats": {
            "type": "object",
            "properties": {
                "failed": {"type": "integer"},
                "historyFailed": {"type": "integer"},
                "notFound": {"type": "integer"},
                "sources": {"type": "object", "additionalProperties": {"type": "integer"}},
                "totalGPUs": {"type": "integer"},
                "updateRate": {"type": "string"},
                "updated": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GPU Price Index API",
	Description:      "Cloud GPU rental prices aggregated across providers, with composite price indices.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
