package layerfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
)

// FieldMapping names the feature properties that carry entity attributes.
// Uploads choose their own property names, so the mapping travels with the
// layer set.
type FieldMapping struct {
	Name       string
	Code       string
	ParentCode string
	Privacy    string
	EntityType string
}

// DefaultFieldMapping matches the property names our exporters write.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Name:       "name",
		Code:       "code",
		ParentCode: "parent_code",
		Privacy:    "privacy_level",
		EntityType: "entity_type",
	}
}

// LevelFile is one uploaded file covering one admin level.
type LevelFile struct {
	Path        string
	LayerFileID int64
}

type geojsonSource struct {
	levels  map[int]LevelFile
	mapping FieldMapping
	maxLvl  int
	logger  *zap.Logger
}

// NewGeoJSONSource creates a FeatureSource over per-level GeoJSON files.
func NewGeoJSONSource(levels map[int]LevelFile, mapping FieldMapping, logger *zap.Logger) repository.FeatureSource {
	maxLvl := 0
	for level := range levels {
		if level > maxLvl {
			maxLvl = level
		}
	}
	return &geojsonSource{
		levels:  levels,
		mapping: mapping,
		maxLvl:  maxLvl,
		logger:  logger,
	}
}

// DiscoverLevelFiles scans a directory for adm0.geojson .. admN.geojson.
// Layer file ids are not known for ad-hoc directories and stay zero.
func DiscoverLevelFiles(dir string) (map[int]LevelFile, error) {
	levels := make(map[int]LevelFile)
	for level := 0; ; level++ {
		path := filepath.Join(dir, fmt.Sprintf("adm%d.geojson", level))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		levels[level] = LevelFile{Path: path}
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}
	return levels, nil
}

func (s *geojsonSource) MaxLevel() int {
	return s.maxLvl
}

func (s *geojsonSource) LayerFileID(level int) int64 {
	return s.levels[level].LayerFileID
}

func (s *geojsonSource) ReadLevel(ctx context.Context, level int) ([]domain.Feature, error) {
	lf, ok := s.levels[level]
	if !ok {
		return nil, nil
	}

	data, err := os.ReadFile(lf.Path)
	if err != nil {
		return nil, fmt.Errorf("read layer file %s: %w", lf.Path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse layer file %s: %w", lf.Path, err)
	}

	features := make([]domain.Feature, 0, len(fc.Features))
	for idx, f := range fc.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Geometry stays raw JSON. The validation gate decides whether it
		// parses; a broken geometry must not abort the read.
		var raw string
		if f.Geometry != nil {
			b, err := json.Marshal(f.Geometry)
			if err != nil {
				s.logger.Warn("Failed to re-serialize feature geometry",
					zap.String("file", lf.Path),
					zap.Int("idx", idx),
					zap.Error(err))
			} else {
				raw = string(b)
			}
		}

		features = append(features, domain.Feature{
			Idx:          idx,
			Level:        level,
			GeometryRaw:  raw,
			EntityID:     s.stringProp(f, s.mapping.Code),
			EntityName:   s.stringProp(f, s.mapping.Name),
			ParentCode:   s.stringProp(f, s.mapping.ParentCode),
			PrivacyLevel: s.intProp(f, s.mapping.Privacy),
			EntityType:   s.stringProp(f, s.mapping.EntityType),
		})
	}

	s.logger.Debug("Layer file read",
		zap.String("file", lf.Path),
		zap.Int("level", level),
		zap.Int("features", len(features)))
	return features, nil
}

func (s *geojsonSource) stringProp(f *geojson.Feature, key string) string {
	if key == "" {
		return ""
	}
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (s *geojsonSource) intProp(f *geojson.Feature, key string) *int {
	if key == "" {
		return nil
	}
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case float64:
		n := int(val)
		return &n
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}
