// availtrack
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/telemetry"
)

const (
	URLParamTestName = "testName"
	URLParamHost     = "host"
	QueryParamPort   = "port"
)

func newDocument() openapi3.T {
	return openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Availability Tracker API",
			Version:     "v1",
			Description: "Serves the results of the synthetic availability tests",
			Contact: &openapi3.Contact{
				URL:   "https://caas.telekom.de",
				Email: "caas-request@telekom.de",
				Name:  "CaaS Team",
			},
		},
		Paths:      make(openapi3.Paths),
		Extensions: make(map[string]any),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
		Servers: openapi3.Servers{},
	}
}

// OpenAPI describes the routes of the tracker api
func OpenAPI(ctx context.Context) (openapi3.T, error) {
	log := logger.FromContext(ctx)
	doc := newDocument()

	schemas := map[string]any{
		"Record":            telemetry.Record{},
		"TrackRequest":      TrackRequest{},
		"CertificateReport": CertificateReport{},
	}
	refs := make(map[string]*openapi3.SchemaRef, len(schemas))
	for name, v := range schemas {
		ref, err := openapi3gen.NewSchemaRefForValue(v, openapi3.Schemas{})
		if err != nil {
			log.Error("Failed to create schema", "name", name, "error", err)
			return openapi3.T{}, &ErrCreateOpenapiSchema{name: name, err: err}
		}
		doc.Components.Schemas[name] = ref
		refs[name] = ref
	}

	records := openapi3.NewObjectSchema().WithAdditionalProperties(refs["Record"].Value)
	doc.Paths["/v1/availability"] = &openapi3.PathItem{
		Get: &openapi3.Operation{
			Description: "Returns the latest record of every availability test",
			Tags:        []string{"Availability"},
			Responses: openapi3.Responses{
				fmt.Sprint(http.StatusOK): jsonResponse("Latest records by test name", records.NewRef()),
			},
		},
		Post: &openapi3.Operation{
			Description: "Tracks the result of an availability test executed elsewhere",
			Tags:        []string{"Availability"},
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(refs["TrackRequest"]),
			},
			Responses: openapi3.Responses{
				fmt.Sprint(http.StatusCreated):    jsonResponse("Tracked record", refs["Record"]),
				fmt.Sprint(http.StatusBadRequest): textResponse("Invalid request"),
			},
		},
	}
	doc.Paths[fmt.Sprintf("/v1/availability/{%s}", URLParamTestName)] = &openapi3.PathItem{
		Get: &openapi3.Operation{
			Description: "Returns the latest record of an availability test",
			Tags:        []string{"Availability"},
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewPathParameter(URLParamTestName).WithSchema(openapi3.NewStringSchema())},
			},
			Responses: openapi3.Responses{
				fmt.Sprint(http.StatusOK):       jsonResponse("Latest record", refs["Record"]),
				fmt.Sprint(http.StatusNotFound): textResponse("Unknown availability test"),
			},
		},
	}
	doc.Paths["/healthz"] = &openapi3.PathItem{
		Get: &openapi3.Operation{
			Description: "Reports whether the latest run of every monitor succeeded",
			Tags:        []string{"Availability"},
			Responses: openapi3.Responses{
				fmt.Sprint(http.StatusOK):                 textResponse("All monitors succeeded"),
				fmt.Sprint(http.StatusServiceUnavailable): textResponse("A monitor failed or has not run yet"),
			},
		},
	}
	doc.Paths[fmt.Sprintf("/v1/certificates/{%s}", URLParamHost)] = &openapi3.PathItem{
		Get: &openapi3.Operation{
			Description: "Returns the number of days the server certificate of a host remains valid",
			Tags:        []string{"Certificates"},
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewPathParameter(URLParamHost).WithSchema(openapi3.NewStringSchema())},
				{Value: openapi3.NewQueryParameter(QueryParamPort).WithSchema(openapi3.NewIntegerSchema())},
			},
			Responses: openapi3.Responses{
				fmt.Sprint(http.StatusOK):         jsonResponse("Certificate expiration", refs["CertificateReport"]),
				fmt.Sprint(http.StatusBadRequest): textResponse("Invalid port"),
				fmt.Sprint(http.StatusBadGateway): textResponse("Certificate could not be retrieved"),
			},
		},
	}

	return doc, nil
}

func jsonResponse(desc string, ref *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithSchemaRef(ref, []string{"application/json"}),
		},
	}
}

func textResponse(desc string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}),
		},
	}
}
