package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Fuel Price Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	gradeProps := map[string]interface{}{
		"regular":  map[string]interface{}{"type": "number", "nullable": true},
		"midgrade": map[string]interface{}{"type": "number", "nullable": true},
		"premium":  map[string]interface{}{"type": "number", "nullable": true},
		"diesel":   map[string]interface{}{"type": "number", "nullable": true},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Fuel Price Platform API",
			"description": "Fuel price ledger with per-station daily records, staff price submission, and dashboard read views",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Fuel Price Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/prices": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Submit a fuel price",
					"description": "Merges one grade price into the station's record for the current UTC day",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{"stationId", "fuelType", "price"},
									"properties": map[string]interface{}{
										"stationId": map[string]interface{}{"type": "string"},
										"fuelType": map[string]interface{}{
											"type": "string",
											"enum": []string{"regular", "midgrade", "premium", "diesel"},
										},
										"price": map[string]interface{}{
											"oneOf": []map[string]string{
												{"type": "number"},
												{"type": "string"},
											},
											"description": "Positive price, number or numeric string",
										},
										"updatedBy": map[string]interface{}{
											"type":        "string",
											"description": "Actor name, defaults to Staff",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Price recorded"},
						"400": map[string]interface{}{"description": "Invalid grade or price"},
						"404": map[string]interface{}{"description": "Unknown station"},
						"503": map[string]interface{}{"description": "Store unavailable, retry later"},
					},
				},
			},
			"/api/prices/recent": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Recent cross-station snapshot",
					"description": "Recent daily records grouped by date then station, dates descending",
					"parameters": []map[string]interface{}{
						{
							"name":        "limit",
							"in":          "query",
							"description": "Record window cap (default: 120)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 120},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Snapshot view"},
					},
				},
			},
			"/api/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List the station directory",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Station listing"},
					},
				},
				"post": map[string]interface{}{
					"summary":     "Register a station",
					"description": "Administrative operation on the directory",
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Station registered"},
						"400": map[string]interface{}{"description": "Invalid station"},
					},
				},
			},
			"/api/stations/{id}/series": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-station price series",
					"description": "Daily price points ascending by date; grades never written report null",
					"parameters": []map[string]interface{}{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Day window cap (default: 30)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 30},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Series view"},
						"404": map[string]interface{}{"description": "Unknown station"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Liveness probe",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is running"},
					},
				},
			},
			"/ready": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Readiness probe",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Store reachable"},
						"503": map[string]interface{}{"description": "Store unavailable"},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"DailyPriceRecord": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(gradeProps, map[string]interface{}{
						"stationId":  map[string]interface{}{"type": "string"},
						"date":       map[string]interface{}{"type": "string", "format": "date"},
						"recordedAt": map[string]interface{}{"type": "string", "format": "date-time"},
						"recordedBy": map[string]interface{}{"type": "string"},
					}),
				},
				"SeriesPoint": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(gradeProps, map[string]interface{}{
						"date": map[string]interface{}{"type": "string", "format": "date"},
					}),
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

func mergeProps(base, extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
