package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
)

// httpTriggerRequest is the JSON envelope the Functions host POSTs for HTTP
// triggers when request forwarding is disabled.
type httpTriggerRequest struct {
	Data struct {
		Req struct {
			URL             string              `json:"Url"`
			Method          string              `json:"Method"`
			Query           map[string]string   `json:"Query"`
			Headers         map[string][]string `json:"Headers"`
			Params          map[string]string   `json:"Params"`
			Body            string              `json:"Body"`
			IsBase64Encoded bool                `json:"isBase64Encoded"`
		} `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// httpTriggerResponse is the envelope returned to the host.
type httpTriggerResponse struct {
	Outputs struct {
		Res struct {
			StatusCode int               `json:"statusCode"`
			Headers    map[string]string `json:"headers"`
			Body       string            `json:"body"`
		} `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

// HandleHttpTrigger unwraps the host envelope into a standard request,
// routes it through next (the ServeMux) and re-wraps the response.
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var invokeReq httpTriggerRequest
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			slog.Error("failed to read HTTP trigger body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
			slog.Error("failed to unmarshal HTTP trigger request", "error", err)
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		reqData := invokeReq.Data.Req
		slog.Info("processing wrapped HTTP request", "method", reqData.Method, "url", reqData.URL)

		// The host does not reliably set isBase64Encoded, so try decoding
		// either way and fall back to the raw body.
		var bodyReader io.Reader = http.NoBody
		if reqData.Body != "" {
			raw := []byte(reqData.Body)
			if decoded, err := base64.StdEncoding.DecodeString(reqData.Body); err == nil {
				raw = decoded
			}
			bodyReader = bytes.NewReader(raw)
		}

		innerReq, err := http.NewRequest(reqData.Method, reqData.URL, bodyReader)
		if err != nil {
			slog.Error("failed to create internal request", "error", err)
			http.Error(w, "Failed to create internal request", http.StatusInternalServerError)
			return
		}
		for k, vals := range reqData.Headers {
			for _, v := range vals {
				innerReq.Header.Add(k, v)
			}
		}

		recorder := httptest.NewRecorder()
		next.ServeHTTP(recorder, innerReq)

		result := recorder.Result()
		respBody, _ := io.ReadAll(result.Body)
		result.Body.Close()

		respHeaders := make(map[string]string)
		for k, v := range result.Header {
			respHeaders[k] = v[0]
		}

		var resp httpTriggerResponse
		resp.Outputs.Res.StatusCode = result.StatusCode
		resp.Outputs.Res.Headers = respHeaders
		resp.Outputs.Res.Body = string(respBody)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode HTTP trigger response", "error", err)
		}
	}
}
