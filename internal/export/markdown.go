package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/wandermate/pkg/types"
)

// RenderMarkdown renders the parsed itinerary as a Markdown document.
func RenderMarkdown(meta Meta, days []types.ParsedDay) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# %s\n\n", meta.Title())
	if dates := meta.DateRange(); dates != "" {
		fmt.Fprintf(b, "_%s_\n\n", dates)
	}
	for _, day := range days {
		if day.Title != "" {
			fmt.Fprintf(b, "## Day %d: %s\n\n", day.DayNum, day.Title)
		} else {
			fmt.Fprintf(b, "## Day %d\n\n", day.DayNum)
		}
		for _, block := range day.Times {
			if block.Time != "" {
				fmt.Fprintf(b, "### %s\n\n", block.Time)
			}
			for _, item := range block.Items {
				if item.Type == types.ItemActivity {
					fmt.Fprintf(b, "- %s\n", item.Content)
				} else {
					fmt.Fprintf(b, "%s\n", item.Content)
				}
			}
			if len(block.Items) > 0 {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

type yamlDoc struct {
	Trip Meta              `yaml:"trip"`
	Days []types.ParsedDay `yaml:"days"`
}

// RenderYAML renders the trip and its days as YAML.
func RenderYAML(meta Meta, days []types.ParsedDay) ([]byte, error) {
	if days == nil {
		days = []types.ParsedDay{}
	}
	return yaml.Marshal(yamlDoc{Trip: meta, Days: days})
}
