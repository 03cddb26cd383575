package main

// Render the exact prompt an analysis task would send, without calling
// the provider:
//   go run ./cmd/prompttest -manuscript sample.txt -mode reaction

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/chunker"
	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/llm/openai"
	"manuscript-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	manuscriptPath := flag.String("manuscript", "", "Path to manuscript text file")
	mode := flag.String("mode", string(llm.ModeStandard), "Analysis mode: standard, reaction or insight")
	chunkIndex := flag.Int("chunk", 0, "Chunk index to render")
	archetypeName := flag.String("archetype", "", "Archetype name from the library (default: first)")
	priorReaction := flag.String("prior-reaction", "", "Prior reaction text for insight mode")
	flag.Parse()

	if strings.TrimSpace(*manuscriptPath) == "" {
		exitErr("manuscript path is required")
	}
	analysisMode := llm.Mode(*mode)
	if !analysisMode.Valid() {
		exitErr(fmt.Sprintf("unsupported mode: %s", *mode))
	}

	body, err := os.ReadFile(*manuscriptPath)
	if err != nil {
		exitErr(fmt.Sprintf("read manuscript: %v", err))
	}

	chunks := chunker.CreateChunks(string(body), chunker.Options{
		MaxWordsPerChunk:  cfg.MaxWordsPerChunk,
		MinWordsPerChunk:  cfg.MinWordsPerChunk,
		PreserveStructure: true,
	})
	if len(chunks) == 0 {
		exitErr("manuscript produced no chunks")
	}
	if *chunkIndex < 0 || *chunkIndex >= len(chunks) {
		exitErr(fmt.Sprintf("chunk index %d out of range, manuscript has %d chunks", *chunkIndex, len(chunks)))
	}

	archetype, err := pickArchetype(cfg.ArchetypeLibraryPath, *archetypeName)
	if err != nil {
		exitErr(err.Error())
	}

	input := llm.AnalyzeInput{
		Persona:       archetype.Persona(),
		ChunkText:     chunks[*chunkIndex].Content,
		ChunkIndex:    *chunkIndex,
		Mode:          analysisMode,
		Scale:         llm.RatingScale(cfg.RatingScale),
		PriorReaction: *priorReaction,
	}

	fmt.Printf("# %s | %s | chunk %d/%d (%d words)\n\n",
		archetype.Name, analysisMode, *chunkIndex+1, len(chunks), chunks[*chunkIndex].WordCount)
	for _, msg := range openai.BuildMessages(input) {
		fmt.Printf("--- %s ---\n%s\n\n", msg.Role, msg.Content)
	}
}

func pickArchetype(libraryPath, name string) (archetypes.Archetype, error) {
	library, err := archetypes.DefaultLibrary()
	if libraryPath != "" {
		library, err = archetypes.LoadLibrary(libraryPath)
	}
	if err != nil {
		return archetypes.Archetype{}, fmt.Errorf("load archetype library: %v", err)
	}
	if len(library) == 0 {
		return archetypes.Archetype{}, fmt.Errorf("archetype library is empty")
	}
	if name == "" {
		return library[0], nil
	}
	for _, archetype := range library {
		if strings.EqualFold(archetype.Name, name) || archetype.ID == name {
			return archetype, nil
		}
	}
	return archetypes.Archetype{}, fmt.Errorf("archetype %q not in library", name)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
