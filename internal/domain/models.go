package domain

import (
	"time"
)

// Signal is the persisted form of a SignalEvent. Rows are inserted once and
// never updated; re-collection of the same ID is ignored.
//
// Fields:
//   - ID: deterministic event id (see EventID).
//   - Source: one of the SourceKind values (indexed for filtering).
//   - PublishedAt: the timestamp string exactly as received upstream.
//   - CollectedAt: when this process first stored the row (drives retention).
type Signal struct {
	ID          string    `json:"id"           gorm:"type:varchar(64);primaryKey"`
	Source      string    `json:"source"       gorm:"type:varchar(16);not null;index:idx_signals_source"`
	Author      string    `json:"author"       gorm:"type:varchar(255);not null"`
	Title       string    `json:"title"        gorm:"type:text;not null"`
	URL         string    `json:"url"          gorm:"type:text;not null"`
	Snippet     string    `json:"snippet"      gorm:"type:text;not null"`
	PublishedAt string    `json:"published_at" gorm:"type:varchar(64);not null"`
	Tags        []string  `json:"tags"         gorm:"type:text;serializer:json"`
	CollectedAt time.Time `json:"collected_at" gorm:"not null;index:idx_signals_collected"`
}

// TableName returns the database table name for Signal.
func (Signal) TableName() string { return "signals" }

// Analysis is the stored assessment of a signal. There is at most one row
// per signal; later analyses overwrite it.
type Analysis struct {
	SignalID   string    `json:"signal_id"    gorm:"type:varchar(64);primaryKey"`
	Summary    string    `json:"summary"      gorm:"type:text;not null"`
	Pros       []string  `json:"pros"         gorm:"type:text;serializer:json"`
	Cons       []string  `json:"cons"         gorm:"type:text;serializer:json"`
	HowToUse   []string  `json:"how_to_use"   gorm:"type:text;serializer:json"`
	WhereToUse []string  `json:"where_to_use" gorm:"type:text;serializer:json"`
	Audience   string    `json:"audience"     gorm:"type:text;not null"`
	Score      int       `json:"score"        gorm:"not null;check:score BETWEEN 0 AND 100"`
	Urgency    string    `json:"urgency"      gorm:"type:varchar(16);not null"`
	Confidence float64   `json:"confidence"   gorm:"not null"`
	AnalyzedAt time.Time `json:"analyzed_at"  gorm:"not null"`

	Signal Signal `json:"-" gorm:"foreignKey:SignalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Analysis.
func (Analysis) TableName() string { return "analyses" }

// Result converts the row back into the pipeline value type.
func (a Analysis) Result() AnalysisResult {
	u, _ := ParseUrgency(a.Urgency)
	return AnalysisResult{
		Summary:    a.Summary,
		Pros:       a.Pros,
		Cons:       a.Cons,
		HowToUse:   a.HowToUse,
		WhereToUse: a.WhereToUse,
		Audience:   a.Audience,
		Score:      a.Score,
		Urgency:    u,
		Confidence: a.Confidence,
	}
}

// Delivery is an append-only record of one delivery attempt.
type Delivery struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	SignalID  string    `json:"signal_id"  gorm:"type:varchar(64);not null;index:idx_deliveries_signal"`
	Channel   string    `json:"channel"    gorm:"type:varchar(16);not null"`
	Status    string    `json:"status"     gorm:"type:varchar(16);not null;check:status IN ('sent','skipped','failed')"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	Signal Signal `json:"-" gorm:"foreignKey:SignalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Delivery.
func (Delivery) TableName() string { return "deliveries" }

// Mute suppresses every future signal of one source kind.
type Mute struct {
	Source    string    `json:"source"     gorm:"type:varchar(16);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Mute.
func (Mute) TableName() string { return "mutes" }

// Hidden marks a signal as dismissed from the inbox listing.
type Hidden struct {
	SignalID string    `json:"signal_id" gorm:"type:varchar(64);primaryKey"`
	HiddenAt time.Time `json:"hidden_at" gorm:"not null"`

	Signal Signal `json:"-" gorm:"foreignKey:SignalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Hidden.
func (Hidden) TableName() string { return "hidden_signals" }

// Favorite pins a signal. It carries a denormalized copy of the signal and
// its analysis headline so that it outlives retention of the source row.
type Favorite struct {
	SignalID    string    `json:"signal_id"    gorm:"type:varchar(64);primaryKey"`
	Source      string    `json:"source"       gorm:"type:varchar(16);not null"`
	Author      string    `json:"author"       gorm:"type:varchar(255);not null"`
	Title       string    `json:"title"        gorm:"type:text;not null"`
	URL         string    `json:"url"          gorm:"type:text;not null"`
	Snippet     string    `json:"snippet"      gorm:"type:text;not null"`
	PublishedAt string    `json:"published_at" gorm:"type:varchar(64);not null"`
	Summary     string    `json:"summary,omitempty" gorm:"type:text"`
	Score       *int      `json:"score,omitempty"`
	Urgency     string    `json:"urgency,omitempty" gorm:"type:varchar(16)"`
	FavoritedAt time.Time `json:"favorited_at" gorm:"not null;index"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// SignalView is the read model served to the inbox: a signal joined with its
// analysis headline and favorite flag. Analysis fields are nil when the
// signal has not been analyzed.
type SignalView struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet"`
	PublishedAt string    `json:"published_at"`
	CollectedAt time.Time `json:"collected_at"`
	Summary     *string   `json:"summary,omitempty"`
	Score       *int      `json:"score,omitempty"`
	Urgency     *string   `json:"urgency,omitempty"`
	Favorite    bool      `json:"favorite"`
}

// SignalDetail is a single signal with everything known about it.
type SignalDetail struct {
	Signal     Signal     `json:"signal"`
	Analysis   *Analysis  `json:"analysis,omitempty"`
	Deliveries []Delivery `json:"deliveries"`
	Hidden     bool       `json:"hidden"`
	Favorite   bool       `json:"favorite"`
}
