package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aidanlsb/brag/internal/atomicfile"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/template"
)

// Substitutions are the values placed into a new document's template.
type Substitutions struct {
	FullName string
	Year     int
	Created  time.Time
}

// CreateFromTemplate writes a new document at destPath from the template at
// templatePath. Placeholders are substituted and the sample bullets shipped
// under the template's section headings are removed.
//
// The destination is never overwritten: DESTINATION_EXISTS is returned if it
// is already present, including when it appears concurrently.
func CreateFromTemplate(templatePath, destPath string, subs Substitutions) error {
	if _, err := os.Lstat(destPath); err == nil {
		return model.Errorf(model.KindDestinationExists, "document already exists at %s", destPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	raw, err := template.Load(templatePath)
	if err != nil {
		return err
	}
	content := template.Apply(string(raw), template.Variables{
		FullName: subs.FullName,
		Year:     subs.Year,
		Created:  subs.Created,
	})

	doc := FromBytes(destPath, []byte(content))
	doc.StripSampleEntries()

	if err := atomicfile.CreateExclusive(destPath, doc.Bytes(), 0o644); err != nil {
		if errors.Is(err, atomicfile.ErrExists) {
			return model.Errorf(model.KindDestinationExists, "document already exists at %s", destPath)
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// StripSampleEntries removes every bullet directly under the schema's
// section headings. Sections missing from the document are skipped.
func (d *Document) StripSampleEntries() int {
	removed := 0
	for _, desc := range d.schema.All() {
		h := SectionHandle{Section: desc}
		bullets, err := d.ListBullets(h)
		if err != nil {
			continue
		}
		for i := len(bullets) - 1; i >= 0; i-- {
			if err := d.RemoveBullet(h, i); err == nil {
				removed++
			}
		}
	}
	return removed
}
