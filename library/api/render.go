package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

const contentTypeJSON = "application/json; charset=utf-8"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonRender is gin's JSON render backed by json-iterator.
type jsonRender struct {
	data any
}

func (r jsonRender) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)

	return json.NewEncoder(w).Encode(r.data)
}

func (r jsonRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{contentTypeJSON}
	}
}

func respond(c *gin.Context, status int, data any) {
	c.Render(status, jsonRender{data: data})
}

// bindJSON decodes the request body into target.
func bindJSON(c *gin.Context, target any) error {
	return json.NewDecoder(c.Request.Body).Decode(target)
}
