package categorize

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/spf13/viper"
)

//go:embed rules.yaml
var defaultRules []byte

// LoadDefaultTable parses the compiled-in rule table.
func LoadDefaultTable() (Table, error) {
	return parseTable(defaultRules)
}

// LoadTable reads a rule table from an external YAML file, so categorization
// rules can be versioned and extended independently of the engine. An empty
// path loads the default table.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return LoadDefaultTable()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Table{}, fmt.Errorf("failed to read rule table %s: %w", path, err)
	}

	return unmarshalTable(v)
}

func parseTable(data []byte) (Table, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Table{}, fmt.Errorf("failed to parse rule table: %w", err)
	}

	return unmarshalTable(v)
}

func unmarshalTable(v *viper.Viper) (Table, error) {
	var table Table
	if err := v.Unmarshal(&table); err != nil {
		return Table{}, fmt.Errorf("failed to unmarshal rule table: %w", err)
	}
	if len(table.Rules) == 0 {
		return Table{}, fmt.Errorf("rule table has no categories")
	}
	if err := table.Compile(); err != nil {
		return Table{}, err
	}
	return table, nil
}
