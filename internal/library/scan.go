package library

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/go-mp3"
	"github.com/johntango/milonga/internal/models"
	"golang.org/x/sync/errgroup"
)

// scanWorkers bounds concurrent tag reads during a library scan.
const scanWorkers = 8

// Scan walks dir for audio files and builds track records from their tags.
//
// Tag extraction runs on a bounded worker pool; files whose tags cannot be
// read still yield a record keyed by path with whatever could be recovered.
// The track identity is the path relative to dir.
func Scan(ctx context.Context, dir string, logger *log.Logger) ([]models.Track, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var tracks []models.Track

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanWorkers)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				rel = path
			}

			track := readTags(path, filepath.ToSlash(rel))
			if track.Duration == 0 {
				if dur, err := probeDuration(path); err == nil {
					track.Duration = dur
				} else if logger != nil {
					logger.Debug("duration probe failed", "path", rel, "error", err)
				}
			}

			mu.Lock()
			tracks = append(tracks, track)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

// readTags builds a track record from a file's ID3 tags. Missing or broken
// tags degrade to a record with only the identity and filename-derived title.
func readTags(path, id string) models.Track {
	track := models.Track{
		ID:    models.NormalizeID(id),
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return track
	}
	defer tag.Close()

	if t := strings.TrimSpace(tag.Title()); t != "" {
		track.Title = t
	}
	track.Artist = strings.TrimSpace(tag.Artist())
	track.Album = strings.TrimSpace(tag.Album())

	if y := strings.TrimSpace(tag.Year()); len(y) >= 4 {
		if year, err := strconv.Atoi(y[:4]); err == nil {
			track.Year = year
		}
	}
	if genre := strings.TrimSpace(tag.Genre()); genre != "" {
		for _, g := range strings.Split(genre, ";") {
			if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
				track.Styles = append(track.Styles, g)
			}
		}
	}
	if bpm := tag.GetTextFrame("TBPM").Text; bpm != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(bpm), 64); err == nil {
			track.BPM = v
		}
	}
	if key := tag.GetTextFrame("TKEY").Text; key != "" {
		track.Key = strings.ToUpper(strings.TrimSpace(key))
	}
	if length := tag.GetTextFrame("TLEN").Text; length != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(length)); err == nil && ms > 0 {
			track.Duration = ms / 1000
		}
	}

	return track
}

// probeDuration decodes the mp3 stream to measure its length when the TLEN
// frame is absent.
func probeDuration(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	samples := decoder.Length()
	if samples <= 0 {
		// Length is unknown for VBR streams without a Xing header; count by reading.
		var total int64
		buf := make([]byte, 32*1024)
		for {
			n, rerr := decoder.Read(buf)
			total += int64(n)
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return 0, rerr
			}
		}
		samples = total
	}

	// 4 bytes per sample: 16-bit stereo.
	seconds := samples / 4 / int64(decoder.SampleRate())
	return int(seconds), nil
}
