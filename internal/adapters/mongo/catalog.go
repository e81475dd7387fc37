package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// CatalogRepository reads the event, ticket and add-on collections that
// back the catalog when it is not the built-in one.
type CatalogRepository struct {
	events  *mongo.Collection
	tickets *mongo.Collection
	addons  *mongo.Collection
	logger  observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		events:  db.Collection("events"),
		tickets: db.Collection("tickets"),
		addons:  db.Collection("addons"),
		logger:  logger,
	}
}

type EventDoc struct {
	ID        string    `bson:"_id"`
	City      string    `bson:"city"`
	Venue     string    `bson:"venue"`
	Date      string    `bson:"date"`
	Image     string    `bson:"img"`
	Status    string    `bson:"status"`
	Position  int       `bson:"position"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type TicketDoc struct {
	ID       string `bson:"_id"`
	Title    string `bson:"title"`
	Price    int64  `bson:"price"`
	Features string `bson:"features"`
	Tag      string `bson:"tag,omitempty"`
	Position int    `bson:"position"`
}

type AddOnDoc struct {
	ID       string `bson:"_id"`
	Title    string `bson:"title"`
	Price    int64  `bson:"price"`
	Position int    `bson:"position"`
}

func findAll[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", coll.Name())
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", coll.Name())
	}
	return docs, nil
}

// Load reads the three collections concurrently and builds a catalog.
func (c *CatalogRepository) Load(ctx context.Context) (*catalog.Catalog, error) {
	var (
		eventDocs  []EventDoc
		ticketDocs []TicketDoc
		addonDocs  []AddOnDoc
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		eventDocs, err = findAll[EventDoc](gctx, c.events)
		return err
	})
	g.Go(func() (err error) {
		ticketDocs, err = findAll[TicketDoc](gctx, c.tickets)
		return err
	})
	g.Go(func() (err error) {
		addonDocs, err = findAll[AddOnDoc](gctx, c.addons)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.WithError(err).Error("failed to load catalog")
		return nil, err
	}

	events := make([]domain.Event, 0, len(eventDocs))
	for _, d := range eventDocs {
		events = append(events, domain.Event{ID: d.ID, City: d.City, Venue: d.Venue, Date: d.Date, Image: d.Image, Status: domain.Availability(d.Status)})
	}
	tickets := make([]domain.Ticket, 0, len(ticketDocs))
	for _, d := range ticketDocs {
		tickets = append(tickets, domain.Ticket{ID: d.ID, Title: d.Title, Price: d.Price, Features: d.Features, Tag: d.Tag})
	}
	addons := make([]domain.AddOn, 0, len(addonDocs))
	for _, d := range addonDocs {
		addons = append(addons, domain.AddOn{ID: d.ID, Title: d.Title, Price: d.Price})
	}
	return catalog.New(events, tickets, addons)
}

// Seed upserts the given catalog, keeping its order.
func (c *CatalogRepository) Seed(ctx context.Context, cat *catalog.Catalog) error {
	now := time.Now().UTC()
	upsert := options.Replace().SetUpsert(true)
	for i, e := range cat.Events() {
		doc := EventDoc{ID: e.ID, City: e.City, Venue: e.Venue, Date: e.Date, Image: e.Image, Status: string(e.Status), Position: i, UpdatedAt: now}
		if _, err := c.events.ReplaceOne(ctx, bson.M{"_id": e.ID}, doc, upsert); err != nil {
			return errors.Wrapf(err, "seed event %s", e.ID)
		}
	}
	for i, t := range cat.Tickets() {
		doc := TicketDoc{ID: t.ID, Title: t.Title, Price: t.Price, Features: t.Features, Tag: t.Tag, Position: i}
		if _, err := c.tickets.ReplaceOne(ctx, bson.M{"_id": t.ID}, doc, upsert); err != nil {
			return errors.Wrapf(err, "seed ticket %s", t.ID)
		}
	}
	for i, a := range cat.AddOns() {
		doc := AddOnDoc{ID: a.ID, Title: a.Title, Price: a.Price, Position: i}
		if _, err := c.addons.ReplaceOne(ctx, bson.M{"_id": a.ID}, doc, upsert); err != nil {
			return errors.Wrapf(err, "seed add-on %s", a.ID)
		}
	}
	return nil
}

// UpdateEventStatus changes the availability shown on an event card.
func (c *CatalogRepository) UpdateEventStatus(ctx context.Context, id string, status domain.Availability) error {
	if !status.Valid() {
		return errors.Wrapf(domain.ErrInvalidInput, "status %q", status)
	}
	res, err := c.events.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		c.logger.WithError(err).Error("failed to update event status")
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
