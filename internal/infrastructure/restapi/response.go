package restapi

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIResponse is the envelope of every endpoint. Success is the discriminant.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, APIResponse{Success: false, Error: err.Error()})
}

func respondErrorWithData(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, APIResponse{Success: false, Error: msg, Data: data})
}

// decodeParams reads a JSON object body keeping numbers verbatim.
func decodeParams(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	params := map[string]any{}
	if err := dec.Decode(&params); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return params, nil
}

// toValues flattens decoded JSON parameters into query values.
func toValues(params map[string]any) url.Values {
	out := url.Values{}
	for k, v := range params {
		switch val := v.(type) {
		case nil:
		case string:
			out.Set(k, val)
		case bool:
			out.Set(k, strconv.FormatBool(val))
		case fmt.Stringer:
			out.Set(k, val.String())
		default:
			out.Set(k, fmt.Sprint(val))
		}
	}
	return out
}
