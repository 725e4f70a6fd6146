package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/redact"
)

// LabelModel is an ONNX single-label text classifier. Both the threat
// classifier and the severity scorer load as LabelModels from their own
// bundle sub-directory.
type LabelModel struct {
	session       *ort.AdvancedSession
	tokenizer     *WordPieceTokenizer
	labels        []string
	seqLen        int
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex
}

// bundleLooksValid reports whether dir contains a loadable label model.
func bundleLooksValid(dir string) bool {
	for _, p := range []string{"model.onnx", "label_map.json", "vocab.txt"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			return false
		}
	}
	return true
}

// LoadLabelModel initializes the ONNX session and tokenizer from a bundle
// directory holding model.onnx, label_map.json, and vocab.txt.
func LoadLabelModel(dir string, seqLen int) (*LabelModel, error) {
	if dir == "" {
		return nil, errors.New("bundle dir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	if lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	labels, err := loadLabelMap(filepath.Join(dir, "label_map.json"))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(dir, "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		filepath.Join(dir, "model.onnx"),
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &LabelModel{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

// Label runs inference and returns the argmax label as a plain string.
func (m *LabelModel) Label(_ context.Context, text string) (string, error) {
	if m == nil || m.session == nil {
		return "", errors.New("label model not initialized")
	}

	inputIDs, attn := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), inputIDs)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return "", fmt.Errorf("onnx run: %w", err)
	}

	logits := m.output.GetData()
	best := 0
	for i := 1; i < len(logits) && i < len(m.labels); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	if best >= len(m.labels) {
		return "", fmt.Errorf("argmax %d out of range for %d labels", best, len(m.labels))
	}
	return m.labels[best], nil
}

// Close releases the session and its tensors.
func (m *LabelModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	for _, t := range []interface{ Destroy() error }{m.inputIDs, m.attentionMask, m.output} {
		if t != nil {
			_ = t.Destroy()
		}
	}
}

// loadLabelMap accepts either a JSON array of labels or an index->label map.
func loadLabelMap(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, errors.New("label map is empty")
	}

	keys := make([]int, 0, len(m))
	byIdx := make(map[int]string, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("label map key %q is not an index", k)
		}
		keys = append(keys, idx)
		byIdx[idx] = v
	}
	sort.Ints(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, byIdx[k])
	}
	return out, nil
}

// StagesFromConfig wires the pipeline stages. Each labeler prefers its ONNX
// bundle sub-directory (classifier/, severity/) and falls back to the
// keyword implementation when the bundle is absent or fails to load.
func StagesFromConfig(cfg config.EnrichConfig) (EntityExtractor, Labeler, Labeler) {
	var threat Labeler = NewKeywordClassifier()
	var severity Labeler = NewKeywordSeverity()

	if cfg.BundleDir != "" {
		if m := loadBundle(filepath.Join(cfg.BundleDir, "classifier"), cfg.SeqLen, "classifier"); m != nil {
			threat = m
		}
		if m := loadBundle(filepath.Join(cfg.BundleDir, "severity"), cfg.SeqLen, "severity"); m != nil {
			severity = m
		}
	}

	return NewRegexExtractor(), threat, severity
}

func loadBundle(dir string, seqLen int, kind string) *LabelModel {
	if !bundleLooksValid(dir) {
		redact.Logf("enrich: no %s bundle at %s, using keyword fallback", kind, dir)
		return nil
	}
	m, err := LoadLabelModel(dir, seqLen)
	if err != nil {
		redact.Logf("enrich: load %s bundle: %v; using keyword fallback", kind, err)
		return nil
	}
	redact.Logf("enrich: %s bundle loaded from %s (%d labels)", kind, dir, len(m.labels))
	return m
}
