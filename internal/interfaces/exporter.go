package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// Exporter writes a corpus to an external destination
type Exporter interface {
	Export(corpus *models.RAGCorpus, path string) error
}
