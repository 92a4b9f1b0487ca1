package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestSuccess_DefaultsToOK(t *testing.T) {
	resp := Success("Users found", []item{{ID: 1, Name: "Alice"}})

	assert.True(t, resp.Success())
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "Users found", resp.Message())

	payload, ok := resp.Payload()
	require.True(t, ok)
	assert.Len(t, payload, 1)
}

func TestSuccess_CustomStatus(t *testing.T) {
	resp := Success("User created successfully", item{ID: 7}, http.StatusCreated)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())
}

func TestFailure_HasNoPayload(t *testing.T) {
	resp := Failure[item]("User not found", http.StatusNotFound)

	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	_, ok := resp.Payload()
	assert.False(t, ok)
}

func TestMarshalJSON_Success(t *testing.T) {
	body, err := json.Marshal(Success("User found", item{ID: 1, Name: "Alice"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"message": "User found",
		"data": {"id": 1, "name": "Alice"},
		"statusCode": 200
	}`, string(body))
}

func TestMarshalJSON_FailureWritesNullData(t *testing.T) {
	body, err := json.Marshal(Failure[[]item]("No Users found", http.StatusNotFound))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"message": "No Users found",
		"data": null,
		"statusCode": 404
	}`, string(body))
}

func TestMarshalJSON_NothingPayloadIsNull(t *testing.T) {
	body, err := json.Marshal(Success("User deleted successfully", Nothing{}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"message": "User deleted successfully",
		"data": null,
		"statusCode": 200
	}`, string(body))
}
