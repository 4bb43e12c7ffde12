package market

// SetTestBaseURL points a client at a test server.
// This should only be used in tests.
func SetTestBaseURL(c *Client, baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}
