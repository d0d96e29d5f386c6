// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

/*
Package models defines the records exchanged between Trendscout's engine and
its collaborators.

Inbound records come from ingestion and channel configuration:

  - Signal: a candidate content idea with its lifecycle status
  - TopicDefinition: one entry of the ordered channel taxonomy
  - Persona: an audience segment with a weekly serving quota
  - FeedbackEvent: an append-only user action on a past recommendation

Records produced by a run:

  - EvidenceBundle: typed evidence gathered for one signal
  - Recommendation: one ranked output entry
  - UnderservedPersona: a persona whose quota could not be met
  - PatternWeight: a learned topic multiplier bounded to [0.5, 2.0]

APIResponse, Metadata and APIError form the HTTP envelope.

Struct tags carry json names for the API and store, koanf/yaml names for
channel configuration and validate rules for internal/validation.
*/
package models
