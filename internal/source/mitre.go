package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/feed"
)

// maxTechniques bounds one MITRE batch; dedup across cycles drops repeats.
const maxTechniques = 100

// Mitre pulls ATT&CK technique descriptions from the public STIX bundle.
type Mitre struct {
	cfg    config.MitreConfig
	client *http.Client
}

func NewMitre(cfg config.MitreConfig) *Mitre {
	return &Mitre{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (m *Mitre) Name() string { return "mitre" }

type stixBundle struct {
	Objects []stixObject `json:"objects"`
}

type stixObject struct {
	Type               string   `json:"type"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	XMitrePlatforms    []string `json:"x_mitre_platforms"`
	ExternalReferences []struct {
		SourceName string `json:"source_name"`
		ExternalID string `json:"external_id"`
	} `json:"external_references"`
}

func (m *Mitre) Fetch(ctx context.Context) ([]feed.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch techniques: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("technique feed returned status %d", resp.StatusCode)
	}

	var bundle stixBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	records := make([]feed.RawRecord, 0, maxTechniques)
	for _, obj := range bundle.Objects {
		if obj.Type != "attack-pattern" || obj.Name == "" {
			continue
		}
		techniqueID := ""
		for _, ref := range obj.ExternalReferences {
			if ref.SourceName == "mitre-attack" && ref.ExternalID != "" {
				techniqueID = ref.ExternalID
				break
			}
		}

		text := obj.Name
		if techniqueID != "" {
			text = techniqueID + ": " + obj.Name
		}
		if desc := strings.TrimSpace(obj.Description); desc != "" {
			text += ". " + firstSentence(desc)
		}

		meta := map[string]any{}
		if techniqueID != "" {
			meta["technique_id"] = techniqueID
		}
		if len(obj.XMitrePlatforms) > 0 {
			meta["platform"] = strings.Join(obj.XMitrePlatforms, ", ")
		}

		records = append(records, feed.RawRecord{
			Source:   m.Name(),
			Text:     text,
			Metadata: meta,
		})
		if len(records) >= maxTechniques {
			break
		}
	}

	return records, nil
}

// firstSentence trims a technique description to its opening sentence so the
// record stays tweet-sized for the NLP stages.
func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}
