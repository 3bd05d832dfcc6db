package integration

import (
	"os"
	"strconv"
	"testing"
)

// newClientOrSkip builds a client against the running API, skipping the test
// when the server is not up. Configuration comes from the environment:
// KASSA_API_URL, KASSA_TEST_USER, KASSA_TEST_PASSWORD, KASSA_TEST_TICKET_ID.
func newClientOrSkip(t *testing.T) *TestClient {
	baseURL := getEnv("KASSA_API_URL", "http://localhost:8080")
	username := getEnv("KASSA_TEST_USER", "testuser")
	password := getEnv("KASSA_TEST_PASSWORD", "testpass")

	client := NewTestClient(baseURL, username, password)
	if !client.IsReachable() {
		t.Skipf("API at %s is not reachable, skipping integration test", baseURL)
	}
	return client
}

// testTicketID returns the id of a ticket seeded as available
func testTicketID(t *testing.T) int64 {
	raw := getEnv("KASSA_TEST_TICKET_ID", "1")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		t.Fatalf("Invalid KASSA_TEST_TICKET_ID: %q", raw)
	}
	return id
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LogTestStep logs a test step for better debugging
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
