package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource entrega una credencial bearer vigente por llamada saliente.
type TokenSource interface {
	Token() (string, error)
}

// StatusError transporta la respuesta no-2xx del document store tal cual,
// con el cuerpo textual para que el caller decida que es user-facing.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("firestore %s: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

// Client accede a documentos de un proyecto via la API REST de Firestore.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

// NewClient construye el cliente con la base
// <host>/v1/projects/<project>/databases/(default)/documents.
// host vacio apunta al endpoint real de Google.
func NewClient(host, projectID string, tokens TokenSource) *Client {
	if host == "" {
		host = "https://firestore.googleapis.com"
	}
	return &Client{
		baseURL: fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents", strings.TrimRight(host, "/"), projectID),
		tokens:  tokens,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type wireDocument struct {
	Fields map[string]wireValue `json:"fields,omitempty"`
}

// GetDocument lee el documento en path (por ejemplo "users/u1") y lo
// devuelve ya decodificado a valores nativos.
func (c *Client) GetDocument(ctx context.Context, path string) (map[string]Value, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+strings.TrimPrefix(path, "/"), nil)
	if err != nil {
		return nil, err
	}

	var doc wireDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return decodeFields(doc.Fields)
}

// PatchDocument escribe unicamente los campos del mask: sin updateMask el
// store reemplazaria el documento completo, asi que cada campo enviado
// debe aparecer en mask y viceversa.
func (c *Client) PatchDocument(ctx context.Context, path string, fields map[string]Value, mask []string) error {
	if len(mask) == 0 {
		return fmt.Errorf("patch %s: empty update mask", path)
	}

	q := url.Values{}
	for _, fieldPath := range mask {
		q.Add("updateMask.fieldPaths", fieldPath)
	}
	endpoint := c.baseURL + "/" + strings.TrimPrefix(path, "/") + "?" + q.Encode()

	payload, err := json.Marshal(wireDocument{Fields: encodeFields(fields)})
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	_, err = c.do(ctx, http.MethodPatch, endpoint, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: strings.ToLower(method), StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
