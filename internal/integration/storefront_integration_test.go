package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
)

type stack struct {
	pool     *pgxpool.Pool
	redis    *redis.Client
	amqp     *amqp.Connection
	auth     *auth.Service
	catalog  *catalog.Service
	reviews  *review.Service
	orders   *order.Service
	enforcer *authz.Enforcer
}

func newStack(ctx context.Context, t *testing.T) *stack {
	t.Helper()

	dsn := startPostgres(ctx, t)
	redisAddr := startRedis(ctx, t)
	amqpURL := startRabbitMQ(ctx, t)

	logger := logging.Discard()
	require.NoError(t, db.RunMigrations(dsn, logger))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	rc, err := cache.NewRedisCache(ctx, redisAddr, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	conn, err := events.Dial(amqpURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	pub, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	enforcer, err := authz.New()
	require.NoError(t, err)

	s := &stack{
		pool:     pool,
		redis:    redis.NewClient(&redis.Options{Addr: redisAddr}),
		amqp:     conn,
		enforcer: enforcer,
	}
	t.Cleanup(func() { _ = s.redis.Close() })

	s.auth = auth.NewService(auth.NewPostgresRepository(pool), auth.NewTokens([]byte("integration-secret-integration-secret"), time.Hour), logger)
	s.catalog = catalog.NewService(catalog.NewPostgresRepository(pool), rc, logger)
	s.reviews = review.NewService(review.NewPostgresRepository(pool), enforcer, s.catalog, logger)
	s.orders = order.NewService(order.NewPostgresRepository(pool), pub, s.catalog, logger)
	return s
}

func titles(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func price(v float64) *float64 { return &v }

func TestStorefrontIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test uses containers")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s := newStack(ctx, t)

	alice, aliceToken, err := s.auth.Register(ctx, auth.RegisterInput{Name: "Alice", Email: "Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)
	bob, _, err := s.auth.Register(ctx, auth.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)

	t.Run("auth", func(t *testing.T) {
		_, _, err := s.auth.Register(ctx, auth.RegisterInput{Name: "Again", Email: "alice@example.com", Password: "secret123"})
		require.ErrorIs(t, err, auth.ErrEmailTaken)

		u, err := s.auth.Authenticate(ctx, aliceToken)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)

		_, loginToken, err := s.auth.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)

		require.NoError(t, s.auth.Logout(ctx, alice.ID))
		_, err = s.auth.Authenticate(ctx, loginToken)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	catA, err := s.catalog.CreateCategory(ctx, "A")
	require.NoError(t, err)
	catB, err := s.catalog.CreateCategory(ctx, "B")
	require.NoError(t, err)
	catC, err := s.catalog.CreateCategory(ctx, "C")
	require.NoError(t, err)
	catD, err := s.catalog.CreateCategory(ctx, "D")
	require.NoError(t, err)

	_, err = s.catalog.CreateCategory(ctx, "A")
	require.ErrorIs(t, err, catalog.ErrCategoryExists)

	mustCreate := func(title string, p float64, old *float64, category int64) catalog.Product {
		t.Helper()
		prod, created, err := s.catalog.CreateProduct(ctx, catalog.ProductInput{
			Title: title, Description: title + " description", Price: p, OldPrice: old, Count: 10, CategoryID: category,
		})
		require.NoError(t, err)
		require.True(t, created)
		return prod
	}

	amazing := mustCreate("Amazing Product", 50, price(80), catA.ID)
	another := mustCreate("Another Item", 150, nil, catB.ID)
	mustCreate("Cool Gadget", 200, nil, catC.ID)
	mustCreate("Pricey", 300, nil, catD.ID)
	cheap := mustCreate("Cheap", 100, nil, catD.ID)
	mustCreate("Middle", 200, nil, catD.ID)

	t.Run("create is first-or-create by title", func(t *testing.T) {
		p, created, err := s.catalog.CreateProduct(ctx, catalog.ProductInput{
			Title: "Amazing Product", Description: "dupe", Price: 1, CategoryID: catB.ID,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, amazing.ID, p.ID)

		_, _, err = s.catalog.CreateProduct(ctx, catalog.ProductInput{Title: "Orphan", Description: "x", Price: 1, CategoryID: 9999})
		require.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	})

	list := func(t *testing.T, values filter.Values) []string {
		t.Helper()
		products, err := s.catalog.ListProducts(ctx, values, catalog.Page{})
		require.NoError(t, err)
		return titles(products)
	}

	t.Run("filters", func(t *testing.T) {
		all := list(t, filter.Values{})
		assert.Len(t, all, 6)
		assert.Equal(t, all, list(t, filter.Values{"nope": "x"}))

		assert.ElementsMatch(t, []string{"Amazing Product", "Another Item"},
			list(t, filter.Values{filter.KeyCategories: []int64{catA.ID, catB.ID}}))

		assert.ElementsMatch(t, []string{"Amazing Product", "Another Item", "Cheap"},
			list(t, filter.Values{filter.KeyPrices: filter.PriceRange{Low: 50, High: 150}}))

		assert.Equal(t, []string{"Amazing Product"}, list(t, filter.Values{filter.KeyTitle: "amazing"}))

		assert.Equal(t, []string{"Cheap", "Middle", "Pricey"},
			list(t, filter.Values{filter.KeyCategories: []int64{catD.ID}, filter.KeySortBy: filter.SortPriceAsc}))
		assert.Equal(t, []string{"Pricey", "Middle", "Cheap"},
			list(t, filter.Values{filter.KeyCategories: []int64{catD.ID}, filter.KeySortBy: filter.SortPriceDesc}))

		assert.Equal(t, []string{"Amazing Product"}, list(t, filter.Values{filter.KeySortBy: filter.SortSale}))

		assert.ElementsMatch(t, []string{"Another Item"}, list(t, filter.Values{
			filter.KeyPrices:     filter.PriceRange{Low: 100, High: 160},
			filter.KeyCategories: []int64{catA.ID, catB.ID},
		}))
	})

	t.Run("reviews and high rated", func(t *testing.T) {
		_, err := s.catalog.ListProducts(ctx, filter.Values{}, catalog.Page{})
		require.NoError(t, err)
		keys, err := s.redis.Keys(ctx, "products:list:*").Result()
		require.NoError(t, err)
		require.NotEmpty(t, keys)

		for _, rating := range []int{5, 5} {
			_, _, err := s.reviews.Create(ctx, alice.ID, review.Input{ProductID: amazing.ID, Rating: rating, Title: "t", Body: "b"})
			require.NoError(t, err)
		}
		bobs, avg, err := s.reviews.Create(ctx, bob.ID, review.Input{ProductID: another.ID, Rating: 3, Title: "t", Body: "b"})
		require.NoError(t, err)
		assert.Equal(t, 3.0, avg)

		keys, err = s.redis.Keys(ctx, "products:list:*").Result()
		require.NoError(t, err)
		assert.Empty(t, keys)

		assert.Equal(t, []string{"Amazing Product"}, list(t, filter.Values{filter.KeyHighRated: true}))

		p, err := s.catalog.GetProduct(ctx, amazing.ID)
		require.NoError(t, err)
		assert.Equal(t, 5.0, p.AverageRating)
		assert.Len(t, p.Reviews, 2)

		_, _, err = s.reviews.Create(ctx, bob.ID, review.Input{ProductID: 999999, Rating: 3, Title: "t", Body: "b"})
		require.ErrorIs(t, err, review.ErrProductNotFound)

		err = s.reviews.Delete(ctx, authz.Subject{ID: alice.ID, Role: alice.Role}, bobs.ID)
		require.ErrorIs(t, err, review.ErrNotAuthor)
		require.NoError(t, s.reviews.Delete(ctx, authz.Subject{ID: bob.ID, Role: bob.Role}, bobs.ID))
		require.ErrorIs(t, s.reviews.Delete(ctx, authz.Subject{ID: bob.ID, Role: bob.Role}, bobs.ID), review.ErrNotFound)
	})

	t.Run("orders", func(t *testing.T) {
		ch, err := s.amqp.Channel()
		require.NoError(t, err)
		defer ch.Close()

		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		require.NoError(t, err)
		require.NoError(t, ch.QueueBind(q.Name, events.OrderPlacedRoutingKey, events.EventsExchange, false, nil))

		// warm the cached bestseller listing; placing an order must drop it
		assert.Equal(t, "Amazing Product", list(t, filter.Values{filter.KeySortBy: filter.SortBestseller})[0])

		placed, err := s.orders.Place(ctx, bob.ID, []order.Line{
			{ProductID: cheap.ID, Quantity: 5},
			{ProductID: amazing.ID, Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 550.0, placed.TotalPrice)
		require.Len(t, placed.Items, 2)
		assert.Equal(t, "Cheap", placed.Items[0].ProductTitle)
		assert.Equal(t, 500.0, placed.Items[0].Subtotal)

		_, err = s.orders.Place(ctx, bob.ID, []order.Line{
			{ProductID: cheap.ID, Quantity: 1},
			{ProductID: 999999, Quantity: 1},
		})
		var notFound *order.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, 1, notFound.Index)

		mine, err := s.orders.ListByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, placed.ID, mine[0].ID)

		theirs, err := s.orders.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, theirs)

		assert.Equal(t, "Cheap", list(t, filter.Values{filter.KeySortBy: filter.SortBestseller})[0])

		var ev events.OrderPlacedEvent
		deadline := time.Now().Add(20 * time.Second)
		for {
			msg, ok, err := ch.Get(q.Name, true)
			require.NoError(t, err)
			if ok {
				require.NoError(t, json.Unmarshal(msg.Body, &ev))
				break
			}
			require.True(t, time.Now().Before(deadline), "timed out waiting for order.placed")
			time.Sleep(100 * time.Millisecond)
		}
		assert.Equal(t, events.EventTypeOrderPlaced, ev.EventName)
		assert.Equal(t, int64(1), ev.Sequence)
		assert.Equal(t, 550.0, ev.Payload.TotalPrice)
		require.NoError(t, ev.Validate(events.EventTypeOrderPlaced, 1))
	})

	t.Run("update and delete product", func(t *testing.T) {
		updated, err := s.catalog.UpdateProduct(ctx, cheap.ID, catalog.ProductInput{
			Title: "Cheaper", Description: "d", Price: 90, Count: 1, CategoryID: catD.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 90.0, updated.Price)

		require.NoError(t, s.catalog.DeleteProduct(ctx, cheap.ID))
		_, err = s.catalog.GetProduct(ctx, cheap.ID)
		require.ErrorIs(t, err, catalog.ErrNotFound)
		require.ErrorIs(t, s.catalog.DeleteProduct(ctx, cheap.ID), catalog.ErrNotFound)

		// order history keeps the snapshot
		mine, err := s.orders.ListByUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cheap", mine[0].Items[0].ProductTitle)
	})
}
