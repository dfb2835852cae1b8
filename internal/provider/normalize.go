package provider

import (
	"regexp"
	"strings"

	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type nameRule struct {
	pattern *regexp.Regexp
	brand   models.Brand
	model   func(m []string) string
}

func fixed(model string) func([]string) string {
	return func([]string) string { return model }
}

// nameRules are tried in order. Known accelerator families come first, most
// specific before their prefixes (GH200 before H200, L40S before L40 before
// L4, A100 before A10), then the generic consumer patterns.
var nameRules = []nameRule{
	{regexp.MustCompile(`\bGH200\b`), models.BrandNVIDIA, fixed("GH200")},
	{regexp.MustCompile(`\bB200\b`), models.BrandNVIDIA, fixed("B200")},
	{regexp.MustCompile(`\bH200\b`), models.BrandNVIDIA, fixed("H200")},
	{regexp.MustCompile(`\bH100\b`), models.BrandNVIDIA, fixed("H100")},
	{regexp.MustCompile(`\bA100\b`), models.BrandNVIDIA, fixed("A100")},
	{regexp.MustCompile(`\bL40S\b`), models.BrandNVIDIA, fixed("L40S")},
	{regexp.MustCompile(`\bL40\b`), models.BrandNVIDIA, fixed("L40")},
	{regexp.MustCompile(`\bRTX ?([2-6]000) ?ADA\b`), models.BrandNVIDIA, func(m []string) string { return "RTX " + m[1] + " Ada" }},
	{regexp.MustCompile(`\b(?:RTX ?)?A([456]000|4500)\b`), models.BrandNVIDIA, func(m []string) string { return "RTX A" + m[1] }},
	{regexp.MustCompile(`\bA40\b`), models.BrandNVIDIA, fixed("A40")},
	{regexp.MustCompile(`\bA10G\b`), models.BrandNVIDIA, fixed("A10G")},
	{regexp.MustCompile(`\bA10\b`), models.BrandNVIDIA, fixed("A10")},
	{regexp.MustCompile(`\bL4\b`), models.BrandNVIDIA, fixed("L4")},
	{regexp.MustCompile(`\bV100\b`), models.BrandNVIDIA, fixed("V100")},
	{regexp.MustCompile(`\bT4\b`), models.BrandNVIDIA, fixed("T4")},
	{regexp.MustCompile(`\bMI(\d{3})(X)?\b`), models.BrandAMD, func(m []string) string { return "MI" + m[1] + m[2] }},
	{regexp.MustCompile(`\bRX ?(\d{4})(?: ?(XTX|XT|GRE))?\b`), models.BrandAMD, consumerModel("RX")},
	{regexp.MustCompile(`\b(RTX|GTX) ?(\d{4}[A-Z]?)(?: ?(TI|SUPER))?\b`), models.BrandNVIDIA, func(m []string) string {
		return consumerModel(m[1])([]string{m[0], m[2], m[3]})
	}},
}

// modelToken is the last resort: the last alphanumeric token with digits,
// such as "K80" in "Tesla K80". Memory sizes are stripped first so "16GB"
// never becomes a model.
var (
	modelToken = regexp.MustCompile(`\b[A-Z]{0,3}\d{2,4}[A-Z]{0,3}\b`)
	memorySize = regexp.MustCompile(`\b\d+ ?(?:GIB|GB|MB|TB|G)\b`)
)

func lastModelToken(text string) (string, bool) {
	tokens := modelToken.FindAllString(memorySize.ReplaceAllString(text, " "), -1)
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[len(tokens)-1], true
}

var suffixCase = map[string]string{
	"TI":    "Ti",
	"SUPER": "Super",
}

func consumerModel(prefix string) func([]string) string {
	return func(m []string) string {
		model := prefix + " " + m[1]
		if len(m) > 2 && m[2] != "" {
			suffix := m[2]
			if cased, ok := suffixCase[suffix]; ok {
				suffix = cased
			}
			model += " " + suffix
		}
		return model
	}
}

var nameCleaner = strings.NewReplacer("_", " ", "-", " ", "/", " ")

func normalizeText(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(nameCleaner.Replace(name))), " ")
}

var (
	amdKeywords    = []string{"AMD", "RADEON", "INSTINCT"}
	nvidiaKeywords = []string{"NVIDIA", "GEFORCE", "TESLA", "QUADRO"}
)

func inferBrand(text string, fallback models.Brand) models.Brand {
	for _, kw := range amdKeywords {
		if strings.Contains(text, kw) {
			return models.BrandAMD
		}
	}
	for _, kw := range nvidiaKeywords {
		if strings.Contains(text, kw) {
			return models.BrandNVIDIA
		}
	}
	return fallback
}

// ParseGPUName applies the shared name rules. defaultBrand is used when the
// generic fallback matches and the text names no vendor.
func ParseGPUName(vendorName string, defaultBrand models.Brand) (pricing.ModelName, bool) {
	text := normalizeText(vendorName)
	if text == "" {
		return pricing.ModelName{}, false
	}

	for _, rule := range nameRules {
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			return pricing.ModelName{Brand: rule.brand, Model: rule.model(m)}, true
		}
	}

	if model, ok := lastModelToken(text); ok {
		return pricing.ModelName{Brand: inferBrand(text, defaultBrand), Model: model}, true
	}

	return pricing.ModelName{}, false
}
