package filter

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseQuery() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select("p.id").From("products p")
}

func render(t *testing.T, b sq.SelectBuilder) (string, []any) {
	t.Helper()
	query, args, err := b.ToSql()
	require.NoError(t, err)
	return query, args
}

func TestApply_UnknownKeysLeaveQueryUntouched(t *testing.T) {
	want, wantArgs := render(t, baseQuery())

	got, args := render(t, Products().Apply(baseQuery(), Values{
		"color":   "red",
		"page":    2,
		"sort_by": SortPriceAsc,
	}))

	assert.Equal(t, want, got)
	assert.Equal(t, wantArgs, args)
}

func TestApply_EmptyValues(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), nil))
	assert.Equal(t, "SELECT p.id FROM products p", got)
	assert.Empty(t, args)
}

func TestApply_Categories(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), Values{
		KeyCategories: []int64{3, 7},
	}))

	assert.Equal(t, "SELECT p.id FROM products p WHERE p.category_id IN ($1,$2)", got)
	assert.Equal(t, []any{int64(3), int64(7)}, args)
}

func TestApply_PricesInclusive(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), Values{
		KeyPrices: PriceRange{Low: 50, High: 150},
	}))

	assert.Equal(t, "SELECT p.id FROM products p WHERE p.price BETWEEN $1 AND $2", got)
	assert.Equal(t, []any{50.0, 150.0}, args)
}

func TestApply_TitleIsCaseInsensitiveSubstring(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), Values{
		KeyTitle: "Amazing",
	}))

	assert.Equal(t, "SELECT p.id FROM products p WHERE p.title ILIKE $1", got)
	assert.Equal(t, []any{"%Amazing%"}, args)
}

func TestApply_TitleEscapesWildcards(t *testing.T) {
	_, args := render(t, Products().Apply(baseQuery(), Values{
		KeyTitle: `50%_off\`,
	}))

	assert.Equal(t, []any{`%50\%\_off\\%`}, args)
}

func TestApply_EmptyTitleIsNoop(t *testing.T) {
	got, _ := render(t, Products().Apply(baseQuery(), Values{KeyTitle: ""}))
	assert.Equal(t, "SELECT p.id FROM products p", got)
}

func TestApply_SortBy(t *testing.T) {
	tests := map[string]struct {
		value string
		want  string
	}{
		"bestseller": {
			value: SortBestseller,
			want:  "SELECT p.id FROM products p ORDER BY (SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.product_id = p.id) DESC",
		},
		"sale filters discounted products": {
			value: SortSale,
			want:  "SELECT p.id FROM products p WHERE p.old_price IS NOT NULL",
		},
		"title ascending": {
			value: SortTitleAsc,
			want:  "SELECT p.id FROM products p ORDER BY p.title ASC",
		},
		"title descending": {
			value: SortTitleDesc,
			want:  "SELECT p.id FROM products p ORDER BY p.title DESC",
		},
		"price ascending": {
			value: SortPriceAsc,
			want:  "SELECT p.id FROM products p ORDER BY p.price ASC",
		},
		"price descending": {
			value: SortPriceDesc,
			want:  "SELECT p.id FROM products p ORDER BY p.price DESC",
		},
		"unknown falls back to creation time": {
			value: "cheapest",
			want:  "SELECT p.id FROM products p ORDER BY p.created_at ASC",
		},
		"empty falls back to creation time": {
			value: "",
			want:  "SELECT p.id FROM products p ORDER BY p.created_at ASC",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, _ := render(t, Products().Apply(baseQuery(), Values{KeySortBy: tt.value}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_HighRated(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), Values{KeyHighRated: true}))

	assert.Equal(t,
		"SELECT p.id FROM products p WHERE COALESCE((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id), 0) > $1",
		got)
	assert.Equal(t, []any{HighRatedThreshold}, args)

	got, _ = render(t, Products().Apply(baseQuery(), Values{KeyHighRated: false}))
	assert.Equal(t, "SELECT p.id FROM products p", got)
}

func TestApply_WrongTypeIsSkipped(t *testing.T) {
	got, args := render(t, Products().Apply(baseQuery(), Values{
		KeyCategories: "1,2",
		KeyPrices:     []float64{1, 2},
		KeyHighRated:  "yes",
	}))

	assert.Equal(t, "SELECT p.id FROM products p", got)
	assert.Empty(t, args)
}

func TestApply_CombinedFiltersFollowRegistryOrder(t *testing.T) {
	first := Values{}
	first[KeyPrices] = PriceRange{Low: 10, High: 20}
	first[KeyCategories] = []int64{1}

	second := Values{}
	second[KeyCategories] = []int64{1}
	second[KeyPrices] = PriceRange{Low: 10, High: 20}

	q1, a1 := render(t, Products().Apply(baseQuery(), first))
	q2, a2 := render(t, Products().Apply(baseQuery(), second))

	assert.Equal(t, "SELECT p.id FROM products p WHERE p.category_id IN ($1) AND p.price BETWEEN $2 AND $3", q1)
	assert.Equal(t, q1, q2)
	assert.Equal(t, a1, a2)
}

func TestRegister_ReplacesInPlace(t *testing.T) {
	c := NewComposer().
		Register("a", func(b sq.SelectBuilder, _ any) sq.SelectBuilder { return b.Where("a = 1") }).
		Register("b", func(b sq.SelectBuilder, _ any) sq.SelectBuilder { return b.Where("b = 1") }).
		Register("a", func(b sq.SelectBuilder, _ any) sq.SelectBuilder { return b.Where("a = 2") })

	assert.Equal(t, []Key{"a", "b"}, c.Keys())

	got, _ := render(t, c.Apply(baseQuery(), Values{"b": true, "a": true}))
	assert.Equal(t, "SELECT p.id FROM products p WHERE a = 2 AND b = 1", got)
}

func TestProducts_RegistryOrder(t *testing.T) {
	assert.Equal(t, []Key{KeyCategories, KeyPrices, KeySortBy, KeyTitle, KeyHighRated}, Products().Keys())
}

func TestFingerprint(t *testing.T) {
	c := Products()

	a := c.Fingerprint(Values{KeyTitle: "x", KeyCategories: []int64{1, 2}, "junk": 1})
	b := c.Fingerprint(Values{KeyCategories: []int64{1, 2}, KeyTitle: "x"})

	assert.Equal(t, "categories=[1 2]&title=x", a)
	assert.Equal(t, a, b)
	assert.Empty(t, c.Fingerprint(Values{"junk": 1}))
}
