package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"propertymatch/internal/bootstrap"
	"propertymatch/internal/conversation"
	"propertymatch/internal/model"
	"propertymatch/internal/service"
)

var (
	searchPrefs     model.UserPreferences
	searchBudget    string
	searchMode      string
	searchJSON      bool
	searchAmenities []string
	searchNear      []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the corpus with explicit preferences",
	Example: `  pmctl search --type Apartment --location "Dubai Hills" --budget 2000000-5000000
  pmctl search --bedrooms "4+ BHK" --amenity Pool --amenity Gym --mode filter`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchPrefs.PropertyType, "type", "", "property type, e.g. Apartment")
	f.StringVar(&searchPrefs.Size, "size", "", "size range in sq ft, e.g. 1200-1800 or 2500+")
	f.StringVar(&searchPrefs.Bedrooms, "bedrooms", "", `bedrooms, e.g. "3 BHK" or "4+ BHK"`)
	f.StringVar(&searchPrefs.Location, "location", "", "location name")
	f.StringVar(&searchBudget, "budget", "", "budget range, e.g. 2000000-5000000 or 10000000+")
	f.StringArrayVar(&searchAmenities, "amenity", nil, "required amenity (repeatable)")
	f.StringArrayVar(&searchNear, "near", nil, "required nearby place (repeatable)")
	f.StringVar(&searchMode, "mode", service.ModeSemantic, "semantic or filter")
	f.BoolVar(&searchJSON, "json", false, "print the results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	prefs := searchPrefs
	prefs.Amenities = searchAmenities
	prefs.Near = searchNear
	if searchBudget != "" {
		lo, hi, ok := conversation.ParseBudget(searchBudget)
		if !ok {
			return fmt.Errorf("invalid budget %q", searchBudget)
		}
		prefs.BudgetMin, prefs.BudgetMax = &lo, &hi
	}

	corpus, err := bootstrap.OpenCorpus(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer corpus.Close()

	embedder, err := bootstrap.NewEmbedder(cfg, log)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	engine := service.NewMatchEngine(corpus.Store, embedder, service.NewRanker(cfg.Match.SimilarityFloor, cfg.Match.TopK), log)
	results, mode, err := engine.Find(cmd.Context(), prefs, searchMode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(model.SearchResponse{
			Results: results,
			Total:   len(results),
			Query:   service.BuildQuery(prefs),
			Mode:    mode,
		})
	}

	fmt.Fprintf(out, "%s (%s search)\n", conversation.ResultsMessage(len(results)).Message, mode)
	for i, r := range results {
		p := r.Property
		fmt.Fprintf(out, "\n%d. %s  [%.2f]\n", i+1, p.Name, r.Similarity)
		fmt.Fprintf(out, "   %s | %s | %s | %s\n", p.Type, p.Location, p.PriceRange, p.Size)
		if len(p.Amenities) > 0 {
			fmt.Fprintf(out, "   Amenities: %s\n", strings.Join(p.Amenities, ", "))
		}
		if len(r.MatchedReasons) > 0 {
			fmt.Fprintf(out, "   Why: %s\n", strings.Join(r.MatchedReasons, "; "))
		}
		if p.Link != "" {
			fmt.Fprintf(out, "   %s\n", p.Link)
		}
	}
	return nil
}
