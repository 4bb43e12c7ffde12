package market

import (
	"encoding/json"
	"strings"
)

// parseComparables extracts known fields from a provider response.
// Providers disagree on field names, so each value is tried under a few keys.
func parseComparables(raw json.RawMessage) *Comparables {
	c := &Comparables{RawJSON: raw}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return c
	}

	// Navigate into nested "data" key if present
	if nested, ok := data["data"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(nested, &m); err == nil {
			data = m
		}
	}

	c.NightlyRate = jsonFloat64(data, "nightly_rate", "adr", "average_daily_rate")
	c.WalkScore = jsonFloat64(data, "walk_score", "walkability", "walkability_score")
	c.DowntownKm = jsonFloat64(data, "downtown_km", "distance_to_downtown_km")
	c.NearbySTRCount = jsonInt(data, "nearby_str_count", "active_listings", "competitors")
	c.SeasonalVariance = jsonFloat64(data, "seasonal_variance", "seasonality_percent")

	if risk := jsonString(data, "regulation_risk", "regulation"); risk != nil {
		lower := strings.ToLower(*risk)
		switch lower {
		case "low", "medium", "high":
			c.RegulationRisk = &lower
		}
	}

	// Distance reported in miles
	if c.DowntownKm == nil {
		if miles := jsonFloat64(data, "downtown_miles"); miles != nil {
			km := *miles * 1.609344
			c.DowntownKm = &km
		}
	}

	dropOutOfRange(c)
	return c
}

// dropOutOfRange discards values no listing may hold, so they fall back to
// scoring defaults instead of failing the store.
func dropOutOfRange(c *Comparables) {
	if c.NightlyRate != nil && *c.NightlyRate < 0 {
		c.NightlyRate = nil
	}
	if c.WalkScore != nil && (*c.WalkScore < 0 || *c.WalkScore > 100) {
		c.WalkScore = nil
	}
	if c.DowntownKm != nil && *c.DowntownKm < 0 {
		c.DowntownKm = nil
	}
	if c.NearbySTRCount != nil && *c.NearbySTRCount < 0 {
		c.NearbySTRCount = nil
	}
	if c.SeasonalVariance != nil && *c.SeasonalVariance < 0 {
		c.SeasonalVariance = nil
	}
}

// jsonInt tries multiple keys and returns the first valid integer value.
func jsonInt(data map[string]json.RawMessage, keys ...string) *int {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			i := int(v)
			return &i
		}
	}
	return nil
}

// jsonFloat64 tries multiple keys and returns the first valid float64 value.
func jsonFloat64(data map[string]json.RawMessage, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return &v
		}
	}
	return nil
}

// jsonString tries multiple keys and returns the first valid string value.
func jsonString(data map[string]json.RawMessage, keys ...string) *string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return &v
		}
	}
	return nil
}
