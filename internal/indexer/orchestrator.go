// Package indexer turns a directory of documents into indexed text and OCR
// items.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/chunker"
	"github.com/ziadkadry99/docrag/internal/config"
	"github.com/ziadkadry99/docrag/internal/docparse"
	"github.com/ziadkadry99/docrag/internal/ocr"
	"github.com/ziadkadry99/docrag/internal/progress"
	"github.com/ziadkadry99/docrag/internal/vectordb"
	"github.com/ziadkadry99/docrag/internal/walker"
)

// DocumentParser extracts text and images from one document.
type DocumentParser interface {
	Parse(ctx context.Context, path, imageDir string) (*docparse.Parsed, error)
}

// OCRFactory builds the OCR engine for a run.
type OCRFactory func(cfg config.OCRConfig, useGPU bool) (ocr.Extractor, error)

// Orchestrator runs the write path: discover, parse, chunk, embed, store,
// then optionally OCR extracted images.
type Orchestrator struct {
	cfg       *config.Config
	store     vectordb.Store
	parser    DocumentParser
	newOCR    OCRFactory
	reporter  progress.Reporter
	statePath string
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParser replaces the default parser registry.
func WithParser(p DocumentParser) Option {
	return func(o *Orchestrator) { o.parser = p }
}

// WithOCRFactory replaces the default OCR engine constructor.
func WithOCRFactory(f OCRFactory) Option {
	return func(o *Orchestrator) { o.newOCR = f }
}

// WithReporter sets the progress reporter for the parse and OCR stages.
func WithReporter(r progress.Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithStatePath overrides where the index state file is kept.
func WithStatePath(path string) Option {
	return func(o *Orchestrator) { o.statePath = path }
}

// NewOrchestrator creates an orchestrator writing to store.
func NewOrchestrator(cfg *config.Config, store vectordb.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		store:     store,
		parser:    docparse.NewRegistry(),
		newOCR:    ocr.NewFromConfig,
		reporter:  progress.Nop{},
		statePath: StatePath(cfg.DBPath, cfg.Collection),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// document is a parsed source file, alive for one run.
type document struct {
	file   walker.FileInfo
	text   string
	images []string
}

// Run indexes every document under the configured documents directory.
// It never returns nil; failures are reported through the stats.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *RunStats {
	stats := &RunStats{StartedAt: o.now().UTC(), OCREnabled: opts.EnableOCR}
	defer func() {
		stats.FinishedAt = o.now().UTC()
		stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)
		o.logRun(stats)
	}()

	docs, err := o.parseAll(ctx, stats)
	if err != nil {
		return stats.fail(err)
	}
	if len(docs) == 0 {
		stats.Status = StatusNoDocuments
		return stats
	}
	stats.TotalDocs = len(docs)

	state, err := LoadState(o.statePath)
	if err != nil {
		return stats.fail(fmt.Errorf("loading index state: %w", err))
	}

	pending, err := o.indexText(ctx, docs, state, stats)
	if err != nil {
		return stats.fail(err)
	}

	var images []string
	for _, d := range docs {
		images = append(images, d.images...)
	}
	stats.TotalImages = len(images)

	if opts.EnableOCR && len(images) > 0 {
		stale, err := o.indexImages(ctx, docs, state, opts.UseGPU, stats)
		if err != nil {
			return stats.fail(err)
		}
		pending = append(pending, stale...)
	}

	if err := o.sweep(ctx, docs, state, pending, stats); err != nil {
		return stats.fail(err)
	}

	state.Collection = o.cfg.Collection
	if err := state.Save(o.statePath); err != nil {
		return stats.fail(fmt.Errorf("saving index state: %w", err))
	}

	stats.Status = StatusSuccess
	return stats
}

// Reset empties the collection and forgets the index state.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if err := o.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	if err := ClearState(o.statePath); err != nil {
		return fmt.Errorf("clearing index state: %w", err)
	}
	log.Info().Str("collection", o.cfg.Collection).Msg("index reset")
	return nil
}

func (o *Orchestrator) parseAll(ctx context.Context, stats *RunStats) ([]document, error) {
	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: o.cfg.DocumentsDir,
		Include: o.cfg.Include,
		Exclude: o.cfg.Exclude,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("dir", o.cfg.DocumentsDir).Msg("documents directory does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("discovering documents: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	o.reporter.Start(len(files), "Parsing documents")
	defer o.reporter.Finish()

	seen := make(map[string]string, len(files))
	docs := make([]document, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.reporter.Update(i+1, f.RelPath)

		parsed, err := o.parser.Parse(ctx, f.Path, o.cfg.ImagesDir)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			stats.FailedDocs++
			log.Warn().Err(err).Str("file", f.RelPath).Msg("skipping unparseable document")
			continue
		}
		if prev, ok := seen[f.Stem()]; ok {
			log.Warn().Str("file", f.RelPath).Str("other", prev).
				Msg("documents share a file stem; their chunk ids overlap")
		}
		seen[f.Stem()] = f.RelPath
		docs = append(docs, document{file: f, text: parsed.Text, images: parsed.Images})
	}
	return docs, nil
}

// indexText writes the text items of docs and records them in state. It
// returns the ids that may have gone stale; sweep decides which to delete.
func (o *Orchestrator) indexText(ctx context.Context, docs []document, state *IndexState, stats *RunStats) ([]string, error) {
	indexedAt := o.now().UTC()
	var items []vectordb.Item
	current := make(map[string][]string, len(docs))

	for _, d := range docs {
		chunks, err := chunker.Split(d.text, o.cfg.Chunking.Size, o.cfg.Chunking.Overlap)
		if err != nil {
			return nil, fmt.Errorf("chunking %s: %w", d.file.RelPath, err)
		}
		ids := make([]string, 0, len(chunks))
		for _, c := range chunks {
			id := TextItemID(d.file.Stem(), c.Index)
			ids = append(ids, id)
			items = append(items, vectordb.Item{
				ID:   id,
				Text: c.Text,
				Metadata: vectordb.ItemMetadata{
					FileName:    d.file.Name,
					FilePath:    d.file.RelPath,
					Type:        vectordb.TypeText,
					ChunkIndex:  c.Index,
					ContentHash: d.file.ContentHash,
					IndexedAt:   indexedAt,
				},
			})
		}
		current[d.file.RelPath] = ids
	}
	stats.TotalChunks = len(items)

	failed := make(map[string]bool)
	if len(items) > 0 {
		report, err := o.store.Upsert(ctx, items)
		stats.SkippedItems += report.Skipped
		if err != nil {
			return nil, fmt.Errorf("writing text items: %w", err)
		}
		for _, f := range report.Failures {
			failed[f.ID] = true
		}
		log.Info().Int("written", report.Written).Int("skipped", report.Skipped).Msg("text items upserted")
	}

	parsed := parsedPaths(docs)

	var pending []string
	for _, d := range docs {
		rel := d.file.RelPath
		prev, known := state.Documents[rel]
		ids := current[rel]

		// A chunk of changed text that failed to embed is dropped from the
		// document, so staleIDs removes the previous text under its id.
		if len(failed) > 0 && (!known || prev.ContentHash != d.file.ContentHash) {
			kept := make([]string, 0, len(ids))
			for _, id := range ids {
				if !failed[id] {
					kept = append(kept, id)
				}
			}
			ids = kept
		}

		ocrIDs := prev.OCRIDs
		if !known {
			ocrIDs = o.movedOCRIDs(state, parsed, d.file.ContentHash)
		}
		pending = append(pending, staleIDs(prev.TextIDs, ids)...)
		state.Documents[rel] = DocState{
			ContentHash: d.file.ContentHash,
			TextIDs:     ids,
			OCRIDs:      ocrIDs,
		}
	}
	return pending, nil
}

func parsedPaths(docs []document) map[string]bool {
	parsed := make(map[string]bool, len(docs))
	for _, d := range docs {
		parsed[d.file.RelPath] = true
	}
	return parsed
}

// movedOCRIDs returns the OCR ids of a vanished document with the given
// content hash, so a moved document keeps its image items while OCR is off.
func (o *Orchestrator) movedOCRIDs(state *IndexState, parsed map[string]bool, hash string) []string {
	for rel, ds := range state.Documents {
		if ds.ContentHash == hash && !parsed[rel] && !o.onDisk(rel) {
			return ds.OCRIDs
		}
	}
	return nil
}

// indexImages runs OCR over the images of docs and writes the results. It
// returns the OCR ids the documents no longer produce.
func (o *Orchestrator) indexImages(ctx context.Context, docs []document, state *IndexState, useGPU bool, stats *RunStats) ([]string, error) {
	extractor, err := o.newOCR(o.cfg.OCR, useGPU)
	if err != nil {
		return nil, fmt.Errorf("initialising ocr: %w", err)
	}

	owner := make(map[string]document)
	var images []string
	for _, d := range docs {
		for _, img := range d.images {
			owner[img] = d
			images = append(images, img)
		}
	}

	o.reporter.Start(len(images), "Running OCR")
	texts, failures := ocr.ProcessImages(ctx, extractor, images, func(done, _ int) {
		o.reporter.Update(done, "")
	})
	o.reporter.Finish()
	stats.FailedImages = len(failures)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexedAt := o.now().UTC()
	items := make([]vectordb.Item, 0, len(texts))
	current := make(map[string][]string)
	for _, t := range texts {
		d := owner[t.ImagePath]
		id := OCRItemID(t.ImagePath, t.Text)
		current[d.file.RelPath] = append(current[d.file.RelPath], id)
		items = append(items, vectordb.Item{
			ID:   id,
			Text: t.Text,
			Metadata: vectordb.ItemMetadata{
				FileName:    d.file.Name,
				FilePath:    d.file.RelPath,
				Type:        vectordb.TypeOCR,
				ImagePath:   t.ImagePath,
				ContentHash: hashText(t.Text),
				IndexedAt:   indexedAt,
			},
		})
	}
	stats.OCRTexts = len(items)

	if len(items) > 0 {
		report, err := o.store.Upsert(ctx, items)
		stats.SkippedItems += report.Skipped
		if err != nil {
			return nil, fmt.Errorf("writing ocr items: %w", err)
		}
		log.Info().Int("written", report.Written).Int("skipped", report.Skipped).Msg("ocr items upserted")
	}

	var stale []string
	for _, d := range docs {
		rel := d.file.RelPath
		ds := state.Documents[rel]
		stale = append(stale, staleIDs(ds.OCRIDs, current[rel])...)
		ds.OCRIDs = current[rel]
		state.Documents[rel] = ds
	}
	return stale, nil
}

// sweep forgets documents that are gone from disk and deletes the candidate
// ids that no remaining document references. Ids are shared across paths
// (text ids derive from the file stem), so an id written this run by a moved
// or same-stem document is never deleted.
func (o *Orchestrator) sweep(ctx context.Context, docs []document, state *IndexState, pending []string, stats *RunStats) error {
	parsed := parsedPaths(docs)
	// Documents that failed to parse this run keep their items.
	for rel, ds := range state.Documents {
		if parsed[rel] || o.onDisk(rel) {
			continue
		}
		pending = append(pending, ds.TextIDs...)
		pending = append(pending, ds.OCRIDs...)
		delete(state.Documents, rel)
	}

	referenced := make(map[string]bool)
	for _, ds := range state.Documents {
		for _, id := range ds.TextIDs {
			referenced[id] = true
		}
		for _, id := range ds.OCRIDs {
			referenced[id] = true
		}
	}

	var stale []string
	seen := make(map[string]bool, len(pending))
	for _, id := range pending {
		if referenced[id] || seen[id] {
			continue
		}
		seen[id] = true
		stale = append(stale, id)
	}
	return o.deleteStale(ctx, stale, stats)
}

func (o *Orchestrator) deleteStale(ctx context.Context, ids []string, stats *RunStats) error {
	if len(ids) == 0 {
		return nil
	}
	if err := o.store.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("removing stale items: %w", err)
	}
	stats.DeletedItems += len(ids)
	log.Debug().Int("count", len(ids)).Msg("stale items removed")
	return nil
}

// onDisk reports whether a previously indexed document still exists, so a
// document skipped this run for a parse error keeps its items.
func (o *Orchestrator) onDisk(rel string) bool {
	_, err := os.Stat(filepath.Join(o.cfg.DocumentsDir, filepath.FromSlash(rel)))
	return err == nil
}

func (o *Orchestrator) logRun(s *RunStats) {
	e := log.Info()
	if s.Status == StatusError {
		e = log.Error().Str("error", s.Error)
	}
	e.Str("status", string(s.Status)).
		Int("docs", s.TotalDocs).
		Int("chunks", s.TotalChunks).
		Int("images", s.TotalImages).
		Int("ocr_texts", s.OCRTexts).
		Int("failed_docs", s.FailedDocs).
		Int("skipped_items", s.SkippedItems).
		Int("deleted_items", s.DeletedItems).
		Dur("duration", s.Duration).
		Msg("indexing finished")
}

// TextItemID is the ID of a document's ordinal-th chunk.
func TextItemID(stem string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", stem, ordinal)
}

// OCRItemID derives a stable ID from an image path and its text, so
// re-running OCR on an unchanged image overwrites the same item.
func OCRItemID(imagePath, text string) string {
	h := sha256.New()
	h.Write([]byte(filepath.ToSlash(imagePath)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return "ocr_" + stem + "_" + hex.EncodeToString(h.Sum(nil))[:12]
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
