package modpkg

import (
	"fmt"
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Metadata is the descriptive block at the head of a modpkg.
//
// Optional string fields (description, distributor, author roles) are
// stored as empty strings on disk and surfaced as "" here.
type Metadata struct {
	Name        string
	DisplayName string
	Description string
	Version     string
	Distributor string
	Authors     []Author
	License     License
}

// Author credits one contributor, with an optional role ("artist", ...).
type Author struct {
	Name string
	Role string
}

// LicenseKind discriminates the license representations.
type LicenseKind uint8

const (
	// LicenseNone means no license was declared.
	LicenseNone LicenseKind = iota
	// LicenseSPDX references a license by SPDX identifier.
	LicenseSPDX
	// LicenseCustom embeds a custom license name and body.
	LicenseCustom
)

// License is the mod's distribution license.
type License struct {
	Kind LicenseKind
	// SpdxID is set for LicenseSPDX.
	SpdxID string
	// Name and Text are set for LicenseCustom.
	Name string
	Text string
}

func readMetadata(r io.Reader) (Metadata, error) {
	var m Metadata
	var err error
	if m.Name, err = rw.ReadString32(r); err != nil {
		return m, fmt.Errorf("modpkg: metadata: %w", err)
	}
	if m.DisplayName, err = rw.ReadString32(r); err != nil {
		return m, err
	}
	if m.Description, err = rw.ReadString32(r); err != nil {
		return m, err
	}
	if m.Version, err = rw.ReadString32(r); err != nil {
		return m, err
	}
	if m.Distributor, err = rw.ReadString32(r); err != nil {
		return m, err
	}

	authorCount, err := rw.ReadU32(r)
	if err != nil {
		return m, err
	}
	m.Authors = make([]Author, 0, authorCount)
	for i := uint32(0); i < authorCount; i++ {
		name, err := rw.ReadString32(r)
		if err != nil {
			return m, err
		}
		role, err := rw.ReadString32(r)
		if err != nil {
			return m, err
		}
		m.Authors = append(m.Authors, Author{Name: name, Role: role})
	}

	m.License, err = readLicense(r)
	return m, err
}

func (m *Metadata) write(w io.Writer) error {
	for _, s := range []string{m.Name, m.DisplayName, m.Description, m.Version, m.Distributor} {
		if err := rw.WriteString32(w, s); err != nil {
			return err
		}
	}
	if err := rw.WriteU32(w, uint32(len(m.Authors))); err != nil {
		return err
	}
	for _, author := range m.Authors {
		if err := rw.WriteString32(w, author.Name); err != nil {
			return err
		}
		if err := rw.WriteString32(w, author.Role); err != nil {
			return err
		}
	}
	return m.License.write(w)
}

func readLicense(r io.Reader) (License, error) {
	kind, err := rw.ReadU8(r)
	if err != nil {
		return License{}, err
	}
	switch LicenseKind(kind) {
	case LicenseNone:
		return License{Kind: LicenseNone}, nil
	case LicenseSPDX:
		id, err := rw.ReadString32(r)
		if err != nil {
			return License{}, err
		}
		return License{Kind: LicenseSPDX, SpdxID: id}, nil
	case LicenseCustom:
		name, err := rw.ReadString32(r)
		if err != nil {
			return License{}, err
		}
		text, err := rw.ReadString32(r)
		if err != nil {
			return License{}, err
		}
		return License{Kind: LicenseCustom, Name: name, Text: text}, nil
	}
	return License{}, fmt.Errorf("modpkg: invalid license kind %d", kind)
}

func (l *License) write(w io.Writer) error {
	if err := rw.WriteU8(w, uint8(l.Kind)); err != nil {
		return err
	}
	switch l.Kind {
	case LicenseSPDX:
		return rw.WriteString32(w, l.SpdxID)
	case LicenseCustom:
		if err := rw.WriteString32(w, l.Name); err != nil {
			return err
		}
		return rw.WriteString32(w, l.Text)
	}
	return nil
}
