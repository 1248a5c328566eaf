package refdata

import "fmt"

// Corpus identifies one of the four reference datasets.
type Corpus string

const (
	CorpusAllergens Corpus = "allergens"
	CorpusGRAS      Corpus = "gras"
	CorpusNDI       Corpus = "ndi"
	CorpusODI       Corpus = "odi"
)

// AllCorpora lists every corpus in a stable order.
var AllCorpora = []Corpus{CorpusAllergens, CorpusGRAS, CorpusNDI, CorpusODI}

// ParseCorpus validates a corpus name.
func ParseCorpus(s string) (Corpus, error) {
	for _, c := range AllCorpora {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCorpus, s)
}

// AllergenDefinition is one of the nine major food allergens with the names
// it hides behind on ingredient lists.
type AllergenDefinition struct {
	Name            string   `json:"name" yaml:"name"`
	Category        string   `json:"category" yaml:"category"`
	CommonName      string   `json:"commonName" yaml:"common_name"`
	Derivatives     []string `json:"derivatives" yaml:"derivatives"`
	ScientificNames []string `json:"scientificNames,omitempty" yaml:"scientific_names"`
	CrossReactive   []string `json:"crossReactive,omitempty" yaml:"cross_reactive"`
	Active          bool     `json:"active" yaml:"active"`
}

// GRASIngredientRecord is a substance Generally Recognized As Safe.
type GRASIngredientRecord struct {
	Name         string   `json:"name" yaml:"name"`
	Synonyms     []string `json:"synonyms,omitempty" yaml:"synonyms"`
	GRASStatus   string   `json:"grasStatus" yaml:"gras_status"`
	NoticeNumber string   `json:"noticeNumber,omitempty" yaml:"notice_number"`
	Active       bool     `json:"active" yaml:"active"`
}

// NDINotificationRecord is a New Dietary Ingredient notification filed with FDA.
type NDINotificationRecord struct {
	NotificationNumber string `json:"notificationNumber" yaml:"notification_number"`
	ReportNumber       string `json:"reportNumber,omitempty" yaml:"report_number"`
	IngredientName     string `json:"ingredientName" yaml:"ingredient_name"`
	Firm               string `json:"firm,omitempty" yaml:"firm"`
	SubmissionDate     string `json:"submissionDate,omitempty" yaml:"submission_date"`
	FDAResponseDate    string `json:"fdaResponseDate,omitempty" yaml:"fda_response_date"`
}

// OldDietaryIngredientRecord is an ingredient marketed before October 15, 1994.
type OldDietaryIngredientRecord struct {
	IngredientName     string   `json:"ingredientName" yaml:"ingredient_name"`
	Synonyms           []string `json:"synonyms,omitempty" yaml:"synonyms"`
	SourceOrganization string   `json:"sourceOrganization,omitempty" yaml:"source_organization"`
	Active             bool     `json:"active" yaml:"active"`
}

// Dataset bundles the four corpora as read from a single file set.
type Dataset struct {
	Allergens []AllergenDefinition         `yaml:"allergens"`
	GRAS      []GRASIngredientRecord       `yaml:"gras"`
	NDI       []NDINotificationRecord      `yaml:"ndi"`
	ODI       []OldDietaryIngredientRecord `yaml:"odi"`
}
