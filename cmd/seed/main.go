package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/Vishwas721/Prism/models"
	"github.com/Vishwas721/Prism/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var seedPolicies = []models.Policy{
	{
		ID:          "mri-lumbar-spine",
		Name:        "MRI Lumbar Spine",
		Description: "Prior authorization criteria for lumbar spine MRI.",
		Text: `MRI of the lumbar spine is approved when ALL of the following are met:
1. Low back pain persisting for at least 6 weeks despite conservative therapy
   (physical therapy, NSAIDs, or chiropractic care).
2. An X-ray of the lumbar spine performed within the last 30 days.
3. Documented neurological deficit (radiculopathy, motor weakness, or
   sensory loss) OR red-flag findings (suspected malignancy, infection,
   or cauda equina syndrome).
Requests missing any criterion require additional documentation before
approval.`,
	},
	{
		ID:          "ct-head",
		Name:        "CT Head",
		Description: "Prior authorization criteria for head CT.",
		Text: `CT of the head is approved for:
1. Acute head trauma with loss of consciousness or focal neurological signs.
2. New-onset seizure in an adult.
3. Suspected intracranial hemorrhage.
Chronic headache without red-flag symptoms requires a trial of medical
management and a neurology consultation before imaging is approved.`,
	},
}

var seedProviders = []models.Provider{
	{
		ID:           "prov-001",
		Name:         "Dr. Sarah Chen",
		Status:       models.ProviderStatusGoldCard,
		ApprovalRate: 0.98,
		Exemption:    "Gold-card exemption: 98% approval rate over trailing 12 months.",
	},
	{
		ID:           "prov-002",
		Name:         "Dr. James Okafor",
		Status:       "STANDARD",
		ApprovalRate: 0.81,
	},
	{
		ID:           "prov-003",
		Name:         "Dr. Maria Alvarez",
		Status:       "STANDARD",
		ApprovalRate: 0.74,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Warn().Msg("No .env file found, using environment variables")
		}
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	policyStore := store.NewPolicyStore(filepath.Join(dataDir, "policies.json"))
	for _, p := range seedPolicies {
		if _, err := policyStore.Add(p); err != nil {
			if errors.Is(err, store.ErrPolicyExists) {
				log.Info().Str("policy", p.ID).Msg("Policy already seeded, skipping")
				continue
			}
			log.Fatal().Err(err).Str("policy", p.ID).Msg("Failed to seed policy")
		}
		log.Info().Str("policy", p.ID).Msg("Seeded policy")
	}

	providersPath := filepath.Join(dataDir, "providers.json")
	if _, err := os.Stat(providersPath); err == nil {
		log.Info().Msg("Providers already seeded, skipping")
		return
	}
	providerStore := store.NewProviderStore(providersPath)
	if err := providerStore.Seed(seedProviders); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed providers")
	}
	log.Info().Int("count", len(seedProviders)).Msg("Seeded providers")
}
