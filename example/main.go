// Command example declares a small feature graph gated by platform,
// toggle, and purchase constraints, then prints the evaluation diagnostics.
package main

import (
	"fmt"
	"log/slog"
	"os"

	featuregate "github.com/featuregate/featuregate-go"
	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/platforms"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
	"github.com/featuregate/featuregate-go/togglestore"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	graph := features.NewGraph()
	graph.Register(features.New("news", "News", "News stand"))
	graph.Register(features.New("news.premium", "Premium", "Premium articles and audio"))
	graph.Register(features.New("news.offline", "Offline", "Offline reading"))

	pro := products.NewNonConsumable("com.example.news.pro", "News Pro")
	monthly := products.NewSubscription("com.example.news.monthly", "News Monthly")

	tracker := purchases.NewMemoryTracker()
	toggles := togglestore.NewMemory()

	engine := featuregate.New(graph,
		featuregate.WithLogger(log),
		featuregate.WithTracker(tracker),
		featuregate.WithToggles(toggles),
	)

	engine.Register("news.premium", featuregate.FeatureConstraints{
		Platforms: []platforms.Constraint{
			{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			{Platform: platforms.MacOS, Version: platforms.AnyVersion()},
			{Platform: platforms.Linux, Version: platforms.AnyVersion()},
		},
		Preconditions: []preconditions.Constraint{
			preconditions.RuntimeEnabled(),
			preconditions.PurchaseRequired(purchases.NewRequirement(
				purchases.MatchAny, []products.Product{pro, monthly},
			)),
		},
	})
	engine.Register("news.offline", featuregate.FeatureConstraints{
		Preconditions: []preconditions.Constraint{
			preconditions.UserToggled(false),
		},
	})

	show := func(path features.Path) {
		description, err := engine.Description(path)
		if err != nil {
			log.Error("evaluation failed", "feature", path, "error", err)
			return
		}
		fmt.Println(description)
	}

	fmt.Println("--- before any purchase data arrives")
	show("news.premium")
	show("news.offline")

	fmt.Println("--- pro purchased, offline toggled on")
	tracker.SetPurchased(pro, true)
	toggles.Set("news.offline", true)
	show("news.premium")
	show("news.offline")
}
