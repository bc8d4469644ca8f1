package od

import (
	"fmt"
	"strconv"
	"strings"

	ini "gopkg.in/ini.v1"
)

// LoadEDS parses an Electronic Data Sheet file into a Catalog. It supports
// the subset of the EDS format the teacher's od.go/parser.go exercised:
// one section per index ("1018", "2000sub1", ...), with ParameterName,
// DataType, AccessType and DefaultValue keys. It is a convenience for
// tests and tooling, not a requirement of the catalog invariants.
func LoadEDS(path string) (*Catalog, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("od: loading EDS %q: %w", path, err)
	}

	type parsed struct {
		bare     *ini.Section
		subs     map[uint8]*ini.Section
		subOrder []uint8
	}
	byIndex := make(map[uint16]*parsed)

	getEntry := func(index uint16) *parsed {
		p, ok := byIndex[index]
		if !ok {
			p = &parsed{subs: make(map[uint8]*ini.Section)}
			byIndex[index] = p
		}
		return p
	}

	for _, section := range cfg.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		indexHex, subHex, hasSub := strings.Cut(name, "sub")
		index64, err := strconv.ParseUint(indexHex, 16, 16)
		if err != nil {
			continue // not an object entry section (e.g. [FileInfo])
		}
		index := uint16(index64)
		p := getEntry(index)

		if !hasSub {
			p.bare = section
			continue
		}
		sub64, err := strconv.ParseUint(subHex, 16, 8)
		if err != nil {
			continue
		}
		subIndex := uint8(sub64)
		p.subs[subIndex] = section
		p.subOrder = append(p.subOrder, subIndex)
	}

	var entries []*Entry
	for index, p := range byIndex {
		name := fmt.Sprintf("0x%04X", index)
		if p.bare != nil && p.bare.Key("ParameterName").String() != "" {
			name = p.bare.Key("ParameterName").String()
		}

		var subs []*Sub
		kind := KindVar
		if len(p.subOrder) > 0 {
			// Array/record: every data-carrying sub comes from an explicit
			// "indexsubN" section; the bare section is metadata only.
			kind = KindRecord
			for _, subIndex := range p.subOrder {
				sub, err := buildSubFromSection(subIndex, p.subs[subIndex])
				if err != nil {
					return nil, fmt.Errorf("od: section [0x%04Xsub%X]: %w", index, subIndex, err)
				}
				subs = append(subs, sub)
			}
		} else if p.bare != nil {
			sub, err := buildSubFromSection(0, p.bare)
			if err != nil {
				return nil, fmt.Errorf("od: section [0x%04X]: %w", index, err)
			}
			subs = []*Sub{sub}
		}
		if len(subs) == 0 {
			continue
		}

		entries = append(entries, &Entry{Index: index, Name: name, Kind: kind, Subs: subs})
	}

	return Build(entries)
}

func buildSubFromSection(subIndex uint8, section *ini.Section) (*Sub, error) {
	name := section.Key("ParameterName").String()
	dataType, err := parseEDSDataType(section.Key("DataType").String())
	if err != nil {
		return nil, err
	}
	attribute := calculateAttribute(section.Key("AccessType").String(), section.HasKey("PDOMapping"))
	initial, err := EncodeFromString(section.Key("DefaultValue").String(), dataType, 0)
	if err != nil {
		return nil, err
	}
	return NewSub(subIndex, name, dataType, attribute, initial), nil
}

func parseEDSDataType(raw string) (uint8, error) {
	if raw == "" {
		return UNSIGNED32, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(raw, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid DataType %q: %w", raw, err)
	}
	return uint8(v), nil
}

// calculateAttribute maps an EDS AccessType string to the Attribute
// bitmask, grounded on the teacher's od.go calculateAttribute.
func calculateAttribute(accessType string, pdoMappable bool) uint8 {
	var attr uint8
	switch strings.ToLower(strings.TrimSpace(accessType)) {
	case "ro", "const":
		attr = AttributeSdoR
	case "wo":
		attr = AttributeSdoW
	case "rw", "rww", "rwr":
		attr = AttributeSdoRw
	default:
		attr = AttributeSdoRw
	}
	if pdoMappable {
		attr |= AttributeTrpdo
	}
	return attr
}
