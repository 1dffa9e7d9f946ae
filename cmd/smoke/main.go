// Command smoke exercises a running API end to end: log in, create a
// student, read it back through the list, post an announcement.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("SCHOOLYARD_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	email := os.Getenv("SCHOOLYARD_SMOKE_EMAIL")
	password := os.Getenv("SCHOOLYARD_SMOKE_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("set SCHOOLYARD_SMOKE_EMAIL and SCHOOLYARD_SMOKE_PASSWORD")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var session struct {
		Token string `json:"token"`
	}
	call(client, base, "", http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK, &session)

	name := fmt.Sprintf("Smoke Student %d", rand.Int())
	var student struct {
		ID string `json:"id"`
	}
	call(client, base, session.Token, http.MethodPost, "/v1/students", map[string]string{
		"full_name":  name,
		"class_name": "smoke",
	}, http.StatusCreated, &student)

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		TotalCount int `json:"total_count"`
	}
	call(client, base, session.Token, http.MethodGet, "/v1/students?pageSize=100", nil, http.StatusOK, &list)
	found := false
	for _, item := range list.Items {
		if item.ID == student.ID {
			found = true
			break
		}
	}
	if !found && list.TotalCount <= 100 {
		log.Fatalf("created student %s missing from list", student.ID)
	}

	var ann struct {
		ID string `json:"id"`
	}
	call(client, base, session.Token, http.MethodPost, "/v1/announcements", map[string]string{
		"title": "Smoke test",
		"body":  "Automated announcement, safe to delete.",
	}, http.StatusCreated, &ann)
	call(client, base, session.Token, http.MethodDelete, "/v1/announcements/"+ann.ID, nil, http.StatusNoContent, nil)

	fmt.Printf("✅ api smoke test passed: student=%s\n", student.ID)
}

func call(client *http.Client, base, token, method, path string, body any, wantStatus int, out any) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, base+path, &buf)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}
