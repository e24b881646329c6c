package importer

import (
	"fmt"
	"io"

	"github.com/halaqahq/halaqa/internal/importer/roster"
	"github.com/halaqahq/halaqa/internal/student"
)

type Service struct {
	rosterImporter Importer
}

func NewService() *Service {
	return &Service{
		rosterImporter: roster.New(),
	}
}

func (s *Service) Import(format Format, r io.Reader) ([]student.CreateParams, error) {
	var importer Importer

	switch format {
	case FormatRoster:
		importer = s.rosterImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return importer.Parse(r)
}
