package mode

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed shaders/prelude.wgsl
var prelude string

//go:embed shaders/helpers.wgsl
var helpers string

//go:embed shaders/entry.wgsl
var entry string

//go:embed shaders/modes/*.wgsl
var bodies embed.FS

// Built-in mode identifiers.
const (
	Difference           ID = "difference"
	DifferenceGray       ID = "difference_gray"
	DifferenceLog        ID = "difference_log"
	Threshold            ID = "threshold"
	Heatmap              ID = "heatmap"
	Rainbow              ID = "rainbow"
	SignedDifference     ID = "signed_difference"
	DiffOverlay          ID = "diff_overlay"
	DeltaE               ID = "delta_e"
	DeltaEThreshold      ID = "delta_e_threshold"
	LumaDifference       ID = "luma_difference"
	ChromaDifference     ID = "chroma_difference"
	HueDifference        ID = "hue_difference"
	SaturationDifference ID = "saturation_difference"
	SSIMMap              ID = "ssim_map"
	EdgeDifference       ID = "edge_difference"
	EdgeOverlay          ID = "edge_overlay"
	GradientDifference   ID = "gradient_difference"
	SharpnessDifference  ID = "sharpness_difference"
	ContrastDifference   ID = "contrast_difference"
	NoiseDifference      ID = "noise_difference"
	FalseColor           ID = "false_color"
	FalseColorDiff       ID = "false_color_diff"
	Overexposure         ID = "overexposure"
	Checkerboard         ID = "checkerboard"
	SplitVertical        ID = "split_vertical"
	SplitHorizontal      ID = "split_horizontal"
	SideBySide           ID = "side_by_side"
	Blend                ID = "blend"
	OnionSkin            ID = "onion_skin"
	Anaglyph             ID = "anaglyph"
	Loupe                ID = "loupe"
	LoupeSplit           ID = "loupe_split"
	Highlight            ID = "highlight"
	XOR                  ID = "xor"
	BlockDifference      ID = "block_difference"
	Flicker              ID = "flicker"
	TemporalFade         ID = "temporal_fade"
	OpticalFlow          ID = "optical_flow"
	ChannelR             ID = "channel_r"
	ChannelG             ID = "channel_g"
	ChannelB             ID = "channel_b"
	AlphaDifference      ID = "alpha_difference"
	PassthroughA         ID = "passthrough_a"
	PassthroughB         ID = "passthrough_b"

	// Passthrough is the fallback engaged when a mode fails to compile.
	Passthrough ID = "passthrough"
)

// Default is the mode a new engine starts with.
const Default = Difference

var catalog = []Record{
	{ID: Difference, Category: CategoryDifference, Name: "Absolute difference"},
	{ID: DifferenceGray, Category: CategoryDifference, Name: "Grayscale difference"},
	{ID: DifferenceLog, Category: CategoryDifference, Name: "Log-scaled difference"},
	{ID: Threshold, Category: CategoryDifference, Name: "Threshold"},
	{ID: Heatmap, Category: CategoryDifference, Name: "Heatmap"},
	{ID: Rainbow, Category: CategoryDifference, Name: "Rainbow"},
	{ID: SignedDifference, Category: CategoryDifference, Name: "Signed difference"},
	{ID: DiffOverlay, Category: CategoryDifference, Name: "Difference overlay"},
	{ID: XOR, Category: CategoryDifference, Name: "Binary mask"},
	{ID: BlockDifference, Category: CategoryDifference, Name: "Block difference"},

	{ID: DeltaE, Category: CategoryPerceptual, Name: "Delta E (CIE94)"},
	{ID: DeltaEThreshold, Category: CategoryPerceptual, Name: "Delta E threshold"},
	{ID: LumaDifference, Category: CategoryPerceptual, Name: "Luminance difference"},
	{ID: ChromaDifference, Category: CategoryPerceptual, Name: "Chroma difference"},
	{ID: HueDifference, Category: CategoryPerceptual, Name: "Hue difference"},
	{ID: SaturationDifference, Category: CategoryPerceptual, Name: "Saturation difference"},

	{ID: SSIMMap, Category: CategoryStructural, Name: "SSIM map"},
	{ID: EdgeDifference, Category: CategoryStructural, Name: "Edge difference"},
	{ID: EdgeOverlay, Category: CategoryStructural, Name: "Edge overlay"},
	{ID: GradientDifference, Category: CategoryStructural, Name: "Gradient difference"},
	{ID: SharpnessDifference, Category: CategoryStructural, Name: "Sharpness difference"},
	{ID: ContrastDifference, Category: CategoryStructural, Name: "Local contrast difference"},
	{ID: NoiseDifference, Category: CategoryStructural, Name: "Noise difference"},

	{ID: FalseColor, Category: CategoryExposure, Name: "False color"},
	{ID: FalseColorDiff, Category: CategoryExposure, Name: "False color difference"},
	{ID: Overexposure, Category: CategoryExposure, Name: "Clipping"},

	{ID: Checkerboard, Category: CategoryLayout, Name: "Checkerboard"},
	{ID: SplitVertical, Category: CategoryLayout, Name: "Vertical split"},
	{ID: SplitHorizontal, Category: CategoryLayout, Name: "Horizontal split"},
	{ID: SideBySide, Category: CategoryLayout, Name: "Side by side"},
	{ID: Blend, Category: CategoryLayout, Name: "Blend"},
	{ID: OnionSkin, Category: CategoryLayout, Name: "Onion skin"},
	{ID: Anaglyph, Category: CategoryLayout, Name: "Anaglyph"},

	{ID: Loupe, Category: CategoryInspection, Name: "Difference loupe"},
	{ID: LoupeSplit, Category: CategoryInspection, Name: "Split loupe"},
	{ID: Highlight, Category: CategoryInspection, Name: "Highlight"},

	{ID: Flicker, Category: CategoryTemporal, Name: "Flicker"},
	{ID: TemporalFade, Category: CategoryTemporal, Name: "Fade"},
	{ID: OpticalFlow, Category: CategoryTemporal, Name: "Optical flow"},

	{ID: ChannelR, Category: CategoryChannel, Name: "Red channel"},
	{ID: ChannelG, Category: CategoryChannel, Name: "Green channel"},
	{ID: ChannelB, Category: CategoryChannel, Name: "Blue channel"},
	{ID: AlphaDifference, Category: CategoryChannel, Name: "Alpha channel"},

	{ID: PassthroughA, Category: CategoryDebug, Name: "Source A"},
	{ID: PassthroughB, Category: CategoryDebug, Name: "Source B"},
	{ID: Passthrough, Category: CategoryDebug, Name: "Pass-through"},
}

var index map[ID]int

func init() {
	index = make(map[ID]int, len(catalog))
	for i := range catalog {
		id := catalog[i].ID
		body, err := bodies.ReadFile("shaders/modes/" + string(id) + ".wgsl")
		if err != nil {
			panic(fmt.Sprintf("mode: missing shader body for %q: %v", id, err))
		}
		catalog[i].Fragment = string(body)
		index[id] = i
	}
}

// Lookup returns the built-in record for id.
func Lookup(id ID) (Record, bool) {
	i, ok := index[id]
	if !ok {
		return Record{}, false
	}
	return catalog[i], true
}

// All returns every built-in record in catalog order.
func All() []Record {
	out := make([]Record, len(catalog))
	copy(out, catalog)
	return out
}

// IDs returns every built-in mode id in catalog order.
func IDs() []ID {
	out := make([]ID, len(catalog))
	for i := range catalog {
		out[i] = catalog[i].ID
	}
	return out
}

// ByCategory returns the built-in records of one category in catalog order.
func ByCategory(c Category) []Record {
	var out []Record
	for i := range catalog {
		if catalog[i].Category == c {
			out = append(out, catalog[i])
		}
	}
	return out
}

// Categories returns the categories in first-appearance order.
func Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for i := range catalog {
		c := catalog[i].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Source returns the complete WGSL module for rec: shared vertex stage,
// helper library, the mode body and the fragment entry point.
func Source(rec Record) string {
	var b strings.Builder
	b.Grow(len(prelude) + len(helpers) + len(rec.Fragment) + len(entry) + 64)
	b.WriteString(prelude)
	b.WriteString("\n")
	b.WriteString(helpers)
	b.WriteString("\n// mode: ")
	b.WriteString(string(rec.ID))
	b.WriteString("\n")
	b.WriteString(rec.Fragment)
	b.WriteString(entry)
	return b.String()
}

// VertexEntryPoint and FragmentEntryPoint name the entry points every
// module produced by Source exposes.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)
