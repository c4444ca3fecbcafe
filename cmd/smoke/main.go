package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func baseURL() string {
	if u := os.Getenv("NEXUS_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

type step struct {
	name    string
	method  string
	path    string
	payload any
}

func main() {
	suffix := fmt.Sprintf("%d", time.Now().Unix())
	id := func(s string) string { return s + "-" + suffix }

	records := []map[string]any{
		{"node_id": id("c1"), "entity_type": "company", "name": "Acme Holdings Ltd", "jurisdictions": []string{"GB"},
			"attributes": map[string]any{"company_number": "05512345"}},
		{"node_id": id("c2"), "entity_type": "company", "name": "ACME Holdings Limited", "jurisdictions": []string{"GB"},
			"attributes": map[string]any{"company_number": "05512345"}},
		{"node_id": id("p1"), "entity_type": "person", "name": "Jane Doe", "roles": []string{"director"},
			"edges": []map[string]string{{"source": id("p1"), "target": id("c1"), "type": "director"}}},
		{"node_id": id("p2"), "entity_type": "person", "name": "Jane Doe", "jurisdictions": []string{"US"}},
	}

	steps := []step{
		{"health", "GET", "/healthz", nil},
		{"ingest records", "POST", "/records", map[string]any{"records": records}},
		{"compare", "POST", "/compare", map[string]any{"node_ids": []string{id("c1"), id("c2")}}},
		{"find similar", "POST", "/similar", map[string]any{"target_id": id("c1"), "filters": []string{"##jurisdiction:GB"}}},
		{"cluster", "POST", "/cluster", map[string]any{"class": "company"}},
		{"networks", "POST", "/networks", map[string]any{"class": "company", "filters": []string{"##jurisdiction:GB"}}},
		{"absences", "GET", "/nexus/absences/" + id("p1"), nil},
		{"surprising", "POST", "/nexus/surprising", map[string]any{
			"subject_a": map[string]any{"name": "Hope Foundation"},
			"subject_b": map[string]any{"name": "R. Black", "keywords": []string{"convicted of fraud"}},
		}},
		{"resolve", "POST", "/resolve", map[string]any{"a": id("c1"), "b": id("c2")}},
		{"wedge result", "POST", "/wedges/result", map[string]any{
			"a": id("p1"), "b": id("p2"), "found": true,
			"wedge": map[string]any{"type": "network", "query": `"Jane Doe" "Acme Holdings Ltd"`, "discriminates": id("p1")},
		}},
	}

	fmt.Println("Starting smoke test against", baseURL())
	for i, s := range steps {
		fmt.Printf("%d. %s...\n", i+1, s.name)
		if !sendRequest(s.method, s.path, s.payload) {
			fmt.Printf("FAILED: %s\n", s.name)
			os.Exit(1)
		}
		fmt.Printf("PASSED: %s\n", s.name)
	}
}

func sendRequest(method, endpoint string, payload any) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding payload: %v\n", err)
			return false
		}
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL()+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
