package relayconfig

import (
	"os"

	"gopkg.in/yaml.v3"

	"protocol-v2/core"
	"protocol-v2/pkg/utils"
	"protocol-v2/relay"
)

// topicFileEntry is one YAML entry in a topic filter file: a topic name
// plus the sources/types it's scoped to. Sources and Types are names, not
// wire numbers, so the file stays readable without the registry in hand.
type topicFileEntry struct {
	Topic   string   `yaml:"topic"`
	Sources []string `yaml:"sources"`
	Types   []string `yaml:"types"`
}

// LoadTopicFilters reads a YAML file of topic filter definitions and
// resolves each into a relay.TopicFilter, in the shape of the teacher's
// cmd/cli/devnet.go (yaml.Unmarshal of a config file's node list into
// typed structs). A relayconfig.Config's Relay.Topics only names topics;
// this is the fine-grained form, scoping each topic to specific sources
// and TLV types, for operators who want more than "matches anything".
func LoadTopicFilters(path string) ([]relay.TopicFilter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.Wrap(err, "read topic filter file")
	}

	var entries []topicFileEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, utils.Wrap(err, "parse topic filter file")
	}

	filters := make([]relay.TopicFilter, 0, len(entries))
	for _, entry := range entries {
		filter := relay.TopicFilter{Topic: entry.Topic}

		for _, name := range entry.Sources {
			source, err := core.ParseSourceType(name)
			if err != nil {
				return nil, utils.Wrap(err, "resolve topic filter source")
			}
			filter.Sources = append(filter.Sources, source)
		}

		for _, name := range entry.Types {
			t, err := core.ParseTLVType(name)
			if err != nil {
				return nil, utils.Wrap(err, "resolve topic filter type")
			}
			filter.Types = append(filter.Types, t)
		}

		filters = append(filters, filter)
	}
	return filters, nil
}
