//go:build go1.23

package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicore/polidex"
	"github.com/civicore/polidex/core"
)

// seedDocument is one corpus entry: a title, its extracted text, and the
// access metadata it is registered with.
type seedDocument struct {
	title  string
	text   string
	access core.Access
}

func publicApproved() core.Access {
	return core.Access{
		Visibility:    core.VisibilityPublic,
		ApprovalState: core.ApprovalApproved,
		UploaderId:    1,
	}
}

func institutionApproved(institution core.ID) core.Access {
	return core.Access{
		Visibility:    core.VisibilityInstitution,
		InstitutionId: institution,
		ApprovalState: core.ApprovalApproved,
		UploaderId:    2,
	}
}

// A small mixed corpus: mostly public approved documents, a few
// institution-scoped ones, and entries still in the approval workflow so
// role-based queries return visibly different results.
var sampleDocuments = []seedDocument{
	{
		title: "Household Waste Collection Schedule",
		text: "Household waste is collected weekly in all districts. Residual waste bins " +
			"are emptied on Tuesdays, organic waste on Thursdays. Bulky items require an " +
			"appointment with the district depot and are limited to three cubic meters per " +
			"household per quarter. Missed collections must be reported within 48 hours.",
		access: publicApproved(),
	},
	{
		title: "Resident Parking Permit Regulations",
		text: "Resident parking permits are issued by the district office to applicants " +
			"whose primary residence lies within a managed parking zone. Permits are valid " +
			"for two years and must be renewed before expiry. A permit covers one vehicle; " +
			"a replacement vehicle can be registered once per permit period without charge.",
		access: publicApproved(),
	},
	{
		title: "Noise Ordinance for Residential Areas",
		text: "Quiet hours apply from 22:00 to 06:00 on weekdays and from 22:00 to 08:00 " +
			"on Sundays and public holidays. Construction work producing more than 55 dB is " +
			"prohibited during quiet hours. Exemptions for urgent infrastructure repairs may " +
			"be granted by the environmental office and have to be displayed on site.",
		access: publicApproved(),
	},
	{
		title: "Drinking Water Quality Monitoring Plan",
		text: "Drinking water samples are taken monthly at twelve reference points across " +
			"the supply network and tested for nitrate, lead, and microbial contamination. " +
			"Results are published quarterly. Exceedances trigger immediate resampling and, " +
			"where confirmed, public notice within 24 hours.",
		access: publicApproved(),
	},
	{
		title: "Winter Road Maintenance Priorities",
		text: "Snow removal prioritizes hospital access roads, bus corridors, and steep " +
			"residential streets, in that order. Side streets are cleared only after priority " +
			"one and two networks are passable. Property owners remain responsible for " +
			"sidewalks adjoining their parcels between 07:00 and 20:00.",
		access: publicApproved(),
	},
	{
		title: "Public Library Fee Schedule",
		text: "Library membership is free for residents under 18 and above 65. The annual " +
			"adult membership fee is twenty euros. Late returns accrue a fee of fifty cents " +
			"per item per day, capped at the replacement cost of the item. Lost items are " +
			"charged at replacement cost plus a five euro processing fee.",
		access: publicApproved(),
	},
	{
		title: "Building Permit Application Guide",
		text: "Building permit applications must include site plans, structural drawings, " +
			"and proof of neighbor notification. The review period is eight weeks for " +
			"residential projects and twelve weeks for commercial projects. Incomplete " +
			"applications are returned within ten working days with a list of missing items.",
		access: publicApproved(),
	},
	{
		title: "Flood Response Operations Plan",
		text: "The flood response plan assigns mobile pump stations to districts by " +
			"elevation profile. Sandbag depots open when river levels exceed the second " +
			"alert threshold. Evacuation routes are signposted and rehearsed annually with " +
			"the volunteer fire services.",
		access: publicApproved(),
	},
	{
		title: "Procurement Thresholds and Tender Rules",
		text: "Purchases above 25,000 euros require a public tender. Between 5,000 and " +
			"25,000 euros, three comparative offers must be documented. Framework agreements " +
			"are limited to four years. Conflicts of interest must be declared before the " +
			"evaluation committee convenes.",
		access: publicApproved(),
	},
	{
		title: "Internal Supplier Evaluation Criteria",
		text: "Supplier evaluations weight delivery reliability at forty percent, quality " +
			"at thirty percent, and price at thirty percent. Evaluations below the threshold " +
			"score in two consecutive periods move the supplier to the watch list. The watch " +
			"list is reviewed by the procurement board each quarter.",
		access: institutionApproved(7),
	},
	{
		title: "Internal IT Security Baseline",
		text: "Workstations lock after ten minutes of inactivity. Remote access requires " +
			"hardware token authentication. Security incidents are reported to the duty " +
			"officer within one hour of detection, and affected systems are isolated before " +
			"forensic review.",
		access: institutionApproved(7),
	},
	{
		title: "Draft Cycling Infrastructure Strategy",
		text: "The draft strategy proposes protected cycle lanes on all arterial roads by " +
			"2030, secure parking at transit hubs, and a repair grant program. Public " +
			"consultation is planned for the autumn. Figures in this draft are provisional.",
		access: core.Access{
			Visibility:    core.VisibilityPublic,
			ApprovalState: core.ApprovalPending,
			UploaderId:    3,
		},
	},
}

var (
	dbPath  = flag.String("db", "./polidex_db", "path to the document store")
	srcDir  = flag.String("src", "", "directory of .txt files to seed instead of the samples")
	prewarm = flag.Bool("prewarm", false, "run an embedding prewarm after seeding")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// documentsFromDir yields one public approved document per .txt file in dir,
// titled by file name.
func documentsFromDir(dir string) (iter.Seq[seedDocument], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedDocument) bool) {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
				continue
			}
			text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				slog.Error("skipping unreadable file", "file", entry.Name(), "err", err)
				continue
			}
			doc := seedDocument{
				title:  strings.TrimSuffix(entry.Name(), ".txt"),
				text:   string(text),
				access: publicApproved(),
			}
			if !yield(doc) {
				return
			}
		}
	}, nil
}

// documentsFromSlice yields the built-in sample corpus.
func documentsFromSlice(docs []seedDocument) iter.Seq[seedDocument] {
	return func(yield func(seedDocument) bool) {
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

func registerAll(ctx context.Context, engine *polidex.Engine, source iter.Seq[seedDocument]) (int, error) {
	count := 0
	for seed := range source {
		doc := &core.Document{Title: seed.title, Access: seed.access}
		if _, err := engine.RegisterDocument(ctx, doc, seed.text); err != nil {
			return count, fmt.Errorf("failed to register %q: %w", seed.title, err)
		}
		count++
	}
	return count, nil
}

func main() {
	engine, err := polidex.NewEngine(*dbPath, polidex.WithProgress(os.Stderr))
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	var source iter.Seq[seedDocument]
	if *srcDir != "" {
		source, err = documentsFromDir(*srcDir)
		if err != nil {
			panic(err)
		}
	} else {
		source = documentsFromSlice(sampleDocuments)
	}

	count, err := registerAll(ctx, engine, source)
	if err != nil {
		panic(err)
	}
	slog.Info("corpus seeded", "documents", count, "db", *dbPath)

	if *prewarm {
		if err := engine.Prewarm(ctx, 0); err != nil {
			panic(err)
		}
	}
}
