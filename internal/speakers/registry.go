// Package speakers resolves speaker identifiers against a directory of
// reference audio files.
//
// The directory convention: a top-level .wav file is a single-sample
// speaker named after the file; a subdirectory containing .wav files is a
// multi-sample speaker named after the directory. Everything else is
// ignored.
package speakers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"

	"github.com/book-expert/xtts-service/internal/core"
)

// AudioExtension is the reference audio extension the registry recognizes.
const AudioExtension = ".wav"

const previewPathFormat = "%s/sample/%s"

// Speaker is an immutable snapshot of one speaker produced by a scan.
type Speaker struct {
	// Name is the display name: the file stem for single-sample speakers,
	// the directory name for multi-sample speakers.
	Name string
	// References holds the reference audio paths in directory listing
	// order. Always at least one entry.
	References []string
	// Preview is the path of the preview sample, relative to the speaker
	// directory.
	Preview string
}

// Record is the external catalog representation of a speaker.
type Record struct {
	Name       string `json:"name"`
	VoiceID    string `json:"voice_id"`
	PreviewURL string `json:"preview_url"`
}

// previewSettings are the environment-provided URL strings used to build
// externally-facing preview URLs.
type previewSettings struct {
	BaseURL   string `env:"BASE_URL" envDefault:"127.0.0.1:8020"`
	TunnelURL string `env:"TUNNEL_URL"`
}

// Registry scans a speaker directory and resolves speaker identifiers to
// reference audio paths. There is no persistent index: every lookup scans
// the directory again.
type Registry struct {
	dir string
	log *logger.Logger
}

// New creates a registry over the given speaker directory.
func New(dir string, log *logger.Logger) (*Registry, error) {
	err := validateDir(dir)
	if err != nil {
		return nil, err
	}

	return &Registry{dir: dir, log: log}, nil
}

// Dir returns the configured speaker directory.
func (r *Registry) Dir() string {
	return r.dir
}

// SetDir points the registry at a different speaker directory.
func (r *Registry) SetDir(dir string) error {
	err := validateDir(dir)
	if err != nil {
		return err
	}

	r.dir = dir
	r.log.Info("Speaker folder is set to %s", dir)

	return nil
}

// Scan walks the speaker directory once and returns all valid speakers.
// Subdirectories without audio files are silently skipped.
func (r *Registry) Scan() ([]Speaker, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read speaker directory %s: %w", r.dir, err)
	}

	var found []Speaker

	for _, entry := range entries {
		fullPath := filepath.Join(r.dir, entry.Name())

		if entry.IsDir() {
			samples, listErr := audioFilesIn(fullPath)
			if listErr != nil {
				return nil, listErr
			}

			if len(samples) == 0 {
				continue
			}

			references := make([]string, len(samples))
			for i, sample := range samples {
				references[i] = filepath.Join(fullPath, sample)
			}

			found = append(found, Speaker{
				Name:       entry.Name(),
				References: references,
				Preview:    filepath.Join(entry.Name(), samples[0]),
			})

			continue
		}

		if strings.HasSuffix(entry.Name(), AudioExtension) {
			found = append(found, Speaker{
				Name:       strings.TrimSuffix(entry.Name(), AudioExtension),
				References: []string{fullPath},
				Preview:    entry.Name(),
			})
		}
	}

	return found, nil
}

// List returns the display names of all available speakers.
func (r *Registry) List() ([]string, error) {
	speakers, err := r.Scan()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(speakers))
	for i, speaker := range speakers {
		names[i] = speaker.Name
	}

	return names, nil
}

// Records returns catalog records for external consumption. Preview URLs
// are built from the BASE_URL environment setting, or TUNNEL_URL when set.
func (r *Registry) Records() ([]Record, error) {
	var settings previewSettings

	err := env.Parse(&settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preview URL settings: %w", err)
	}

	baseURL := settings.BaseURL
	if settings.TunnelURL != "" {
		baseURL = settings.TunnelURL
	}

	speakers, err := r.Scan()
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(speakers))
	for i, speaker := range speakers {
		records[i] = Record{
			Name:       speaker.Name,
			VoiceID:    speaker.Name,
			PreviewURL: fmt.Sprintf(previewPathFormat, baseURL, filepath.ToSlash(speaker.Preview)),
		}
	}

	return records, nil
}

// Resolve maps a speaker identifier to a speaker snapshot.
//
// An identifier that itself names an audio file is treated as a literal
// reference, bypassing name lookup: absolute paths are used as-is and
// relative paths are joined against the speaker directory. Any other
// identifier is a speaker name, matched first against a subdirectory of
// samples and then against a single <name>.wav file.
func (r *Registry) Resolve(identifier string) (Speaker, error) {
	if strings.HasSuffix(identifier, AudioExtension) {
		return r.resolveLiteral(identifier), nil
	}

	fullPath := filepath.Join(r.dir, identifier)

	info, statErr := os.Stat(fullPath)
	if statErr == nil && info.IsDir() {
		return r.resolveMultiSample(identifier, fullPath)
	}

	singlePath := fullPath + AudioExtension
	if fileExists(singlePath) {
		return Speaker{
			Name:       identifier,
			References: []string{singlePath},
			Preview:    identifier + AudioExtension,
		}, nil
	}

	return Speaker{}, fmt.Errorf("%w: %s", core.ErrSpeakerNotFound, identifier)
}

func (r *Registry) resolveLiteral(identifier string) Speaker {
	path := identifier
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, identifier)
	}

	name := strings.TrimSuffix(filepath.Base(identifier), AudioExtension)

	return Speaker{
		Name:       name,
		References: []string{path},
		Preview:    filepath.Base(identifier),
	}
}

func (r *Registry) resolveMultiSample(name, fullPath string) (Speaker, error) {
	samples, err := audioFilesIn(fullPath)
	if err != nil {
		return Speaker{}, err
	}

	if len(samples) == 0 {
		return Speaker{}, fmt.Errorf(
			"%w: no audio references in %s",
			core.ErrSpeakerNotFound,
			name,
		)
	}

	references := make([]string, len(samples))
	for i, sample := range samples {
		references[i] = filepath.Join(fullPath, sample)
	}

	return Speaker{
		Name:       name,
		References: references,
		Preview:    filepath.Join(name, samples[0]),
	}, nil
}

// audioFilesIn lists the audio file names in a directory, in listing order.
func audioFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var samples []string

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), AudioExtension) {
			samples = append(samples, entry.Name())
		}
	}

	return samples, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

func validateDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", core.ErrInvalidDirectory, dir)
	}

	return nil
}
