package store

// Config holds configuration for Items.
type Config struct {
	// TableName is the DynamoDB table holding the items.
	TableName string

	// PrimaryKey is the name of the table's string partition key.
	// Default: "itemId"
	PrimaryKey string

	// TTLAttribute is the numeric epoch-seconds attribute DynamoDB TTL is
	// configured on.
	// Default: "ttl"
	TTLAttribute string

	// CacheName is the logical cache Invalidate deletes from.
	// Default: "default"
	CacheName string
}

// DefaultConfig returns sensible defaults. TableName has no default.
func DefaultConfig() Config {
	return Config{
		PrimaryKey:   "itemId",
		TTLAttribute: "ttl",
		CacheName:    "default",
	}
}

// validate fills unset values with defaults.
func (c *Config) validate() {
	defaults := DefaultConfig()
	if c.PrimaryKey == "" {
		c.PrimaryKey = defaults.PrimaryKey
	}
	if c.TTLAttribute == "" {
		c.TTLAttribute = defaults.TTLAttribute
	}
	if c.CacheName == "" {
		c.CacheName = defaults.CacheName
	}
}
