package openapi

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.0
info:
  title: Pets
  version: "1.0"
servers:
  - url: http://localhost:8080/api
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
      parameters:
        - name: limit
          in: query
          required: true
          schema:
            type: integer
        - name: verbose
          in: query
          required: false
          schema:
            type: boolean
    post:
      operationId: createPet
      tags: [pets]
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
                  example: rex
                age:
                  type: integer
                owner:
                  type: object
  /pets/{petId}:
    get:
      operationId: getPet
      tags: [pets]
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
        - name: X-Request-ID
          in: header
          required: true
          schema:
            type: string
            format: uuid
    options:
      operationId: petOptions
  /admin/reset:
    post:
      operationId: resetAll
      tags: [admin]
`

func loadDoc(t *testing.T, spec string) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(spec))
	require.NoError(t, err)
	return doc
}

func TestConvert_OneRequestPerOperation(t *testing.T) {
	requests, err := NewConverter().Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	// Paths sorted, OPTIONS dropped.
	require.Len(t, requests, 4)
	assert.Equal(t, "POST", requests[0].Method)
	assert.Equal(t, "/api/admin/reset", requests[0].Endpoint)
	assert.Equal(t, "GET", requests[1].Method)
	assert.Equal(t, "/api/pets?limit=1", requests[1].Endpoint)
	assert.Equal(t, "POST", requests[2].Method)
	assert.Equal(t, "/api/pets", requests[2].Endpoint)
	assert.Equal(t, "GET", requests[3].Method)
	assert.Equal(t, "/api/pets/1", requests[3].Endpoint)
}

func TestConvert_ServerSuppliesTargetPortAndPrefix(t *testing.T) {
	requests, err := NewConverter().Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	for _, req := range requests {
		assert.Equal(t, "localhost", req.Target)
		assert.Equal(t, uint16(8080), req.Port)
		assert.NoError(t, req.Validate())
	}
}

func TestConvert_JSONBodyFromSchema(t *testing.T) {
	requests, err := NewConverter().Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	createPet := requests[2]
	assert.Equal(t, "application/json", createPet.Headers["Content-Type"])
	// Scalar properties with document or synthesized examples; the nested
	// owner object is dropped.
	assert.Equal(t, map[string]string{"name": "rex", "age": "1"}, createPet.Data)
}

func TestConvert_RequiredHeaderParam(t *testing.T) {
	requests, err := NewConverter().Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	getPet := requests[3]
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", getPet.Headers["X-Request-ID"])
}

func TestConvert_OptionalQueryParamsDropped(t *testing.T) {
	requests, err := NewConverter().Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	assert.NotContains(t, requests[1].Endpoint, "verbose")
}

func TestConvert_TagFilter(t *testing.T) {
	requests, err := NewConverter(WithTags([]string{"admin"})).Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, "/api/admin/reset", requests[0].Endpoint)
}

func TestConvert_BaseURLOverride(t *testing.T) {
	requests, err := NewConverter(WithBaseURL("http://api.dev:9000")).Convert(loadDoc(t, petstore))
	require.NoError(t, err)

	assert.Equal(t, "api.dev", requests[0].Target)
	assert.Equal(t, uint16(9000), requests[0].Port)
	assert.Equal(t, "/admin/reset", requests[0].Endpoint)
}

func TestConvert_NoServers(t *testing.T) {
	spec := `
openapi: 3.0.0
info:
  title: Bare
  version: "1.0"
paths:
  /ping:
    get:
      operationId: ping
`
	_, err := NewConverter().Convert(loadDoc(t, spec))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no servers")
}

func TestConvert_HTTPSServerRejected(t *testing.T) {
	spec := `
openapi: 3.0.0
info:
  title: Secure
  version: "1.0"
servers:
  - url: https://prod.example.com
paths:
  /ping:
    get:
      operationId: ping
`
	_, err := NewConverter().Convert(loadDoc(t, spec))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain HTTP")
}

func TestConvert_TemplatedServerRejected(t *testing.T) {
	spec := `
openapi: 3.0.0
info:
  title: Templated
  version: "1.0"
servers:
  - url: "http://{env}.example.com"
paths:
  /ping:
    get:
      operationId: ping
`
	_, err := NewConverter().Convert(loadDoc(t, spec))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variables")
}
