package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"studiodesk/pkg/config"
	"studiodesk/pkg/session"
)

// devflow drives a running API through one invoice lifecycle: create a client, create a
// design invoice, issue it, record the first termin as paid and print the timeline.
func main() {
	var (
		baseURL   = flag.String("base-url", "", "API base url (defaults to http://localhost<HTTP_ADDR>)")
		category  = flag.String("category", "design", "design | civil | interior")
		area      = flag.String("area", "120", "area in m2 (design)")
		unitPrice = flag.String("unit-price", "250000", "price per m2 (design)")
		total     = flag.String("total", "0", "contract value (civil/interior)")
		email     = flag.String("email", "dev@studio.local", "actor email")
	)
	flag.Parse()

	cfg := config.Load()
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}

	c := client{base: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}
	if cfg.Session.Secret != "" {
		tok, err := session.Sign(session.Session{
			UserID:    *email,
			Email:     *email,
			Role:      session.RoleAdmin,
			ExpiresAt: time.Now().Add(time.Hour),
		}, cfg.Session.Secret, cfg.Session.Issuer, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
			os.Exit(1)
		}
		c.token = tok
	} else {
		c.devEmail = *email
	}

	var cl struct {
		ID string `json:"id"`
	}
	c.must(http.MethodPost, "/v1/clients", map[string]any{
		"name":  fmt.Sprintf("Devflow Client %d", time.Now().Unix()),
		"email": "client@example.com",
	}, &cl)

	var view struct {
		Document struct {
			ID         string `json:"id"`
			Number     string `json:"number"`
			TotalValue string `json:"totalValue"`
			Milestones []struct {
				Label  string `json:"label"`
				Spec   string `json:"spec"`
				Amount string `json:"amount"`
			} `json:"milestones"`
		} `json:"document"`
		Warnings []map[string]any `json:"warnings"`
	}
	c.must(http.MethodPost, "/v1/documents", map[string]any{
		"kind":       "invoice",
		"title":      "Devflow invoice",
		"clientId":   cl.ID,
		"category":   *category,
		"area":       *area,
		"unitPrice":  *unitPrice,
		"totalValue": *total,
	}, &view)
	id := view.Document.ID

	c.must(http.MethodPatch, "/v1/documents/"+id+"/status", map[string]any{"status": "issued"}, nil)

	var settled struct {
		Summary map[string]any `json:"summary"`
	}
	c.must(http.MethodPatch, "/v1/documents/"+id+"/termins/0/status", map[string]any{"status": "success"}, &settled)

	var timeline struct {
		Items []struct {
			EventType string `json:"eventType"`
			Summary   string `json:"summary"`
		} `json:"items"`
	}
	c.must(http.MethodGet, "/v1/documents/"+id+"/events", nil, &timeline)

	fmt.Printf("Flow complete.\n")
	fmt.Printf("client_id=%s\n", cl.ID)
	fmt.Printf("document_id=%s number=%s total=%s\n", id, view.Document.Number, view.Document.TotalValue)
	fmt.Printf("termins:\n")
	for i, m := range view.Document.Milestones {
		fmt.Printf("  %d. %-10s spec=%-10q amount=%s\n", i+1, m.Label, m.Spec, m.Amount)
	}
	if len(view.Warnings) > 0 {
		fmt.Printf("warnings: %v\n", view.Warnings)
	}
	fmt.Printf("summary after paying termin 1: %v\n", settled.Summary)
	fmt.Printf("events:\n")
	for _, e := range timeline.Items {
		fmt.Printf("  %-16s %s\n", e.EventType, e.Summary)
	}
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  GET %s/v1/reports/revenue?granularity=month\n", c.base)
}

type client struct {
	base     string
	http     *http.Client
	token    string
	devEmail string
}

func (c client) must(method, path string, body, out any) {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		// Only accepted when the API is not running with APP_ENV=prod.
		req.Header.Set("X-User-Email", c.devEmail)
		req.Header.Set("X-User-Role", string(session.RoleAdmin))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", method, path, err)
		fmt.Fprintf(os.Stderr, "tip: is the API running, and is HTTP_ADDR set correctly? base_url=%s\n", c.base)
		os.Exit(1)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "%s %s status=%d body=%s\n", method, path, resp.StatusCode, string(raw))
		os.Exit(1)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			fmt.Fprintf(os.Stderr, "decode %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func defaultBaseURL(httpAddr string) string {
	// httpAddr is typically ":8080" or "0.0.0.0:8080".
	addr := strings.TrimSpace(httpAddr)
	if addr == "" {
		addr = ":8081"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	// Strip host if present (bind address), keep port.
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}
