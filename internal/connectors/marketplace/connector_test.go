package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}

const flatResponse = `{
  "item": {
    "num_iid": 6101,
    "title": "羊毛针织开衫",
    "nick": "Studio A",
    "price": "25900",
    "desc": "<p><img src=\"//img.example.com/desc1.jpg\"><img src=\"https://img.example.com/spaceball.gif\"><img data-src=\"//img.example.com/desc2.jpg\" src=\"//img.example.com/loading.png\"><img src=\"//img.example.com/desc1.jpg\"></p>",
    "images": ["//img.example.com/a.jpg", "https://img.example.com/b.jpg", "//img.example.com/a.jpg"],
    "skus": [
      {"sku_id": "1", "price": 25900, "quantity": 3,
       "properties": [{"name": "颜色分类", "value": "灰-现货"}, {"name": "尺码", "value": "S"}],
       "image": "//img.example.com/gray.jpg"},
      {"sku_id": "2", "quantity": "5",
       "properties": [{"name": "颜色分类", "value": "灰-现货"}, {"name": "尺码", "value": "M"}]}
    ]
  }
}`

const wrappedResponse = `{
  "item_get_response": {
    "item": {
      "num_iid": "6102",
      "title": "Wool coat",
      "price": 99900,
      "pic_url": "//img.example.com/main.jpg",
      "item_imgs": {"item_img": [{"url": "//img.example.com/main.jpg"}, {"url": "//img.example.com/side.jpg"}]},
      "prop_imgs": {"prop_img": [{"properties": "1627207:28341", "url": "//img.example.com/black.jpg"}]},
      "skus": {"sku": [
        {"sku_id": 11, "price": "99900", "quantity": 2, "properties": "1627207:28341;20509:28315",
         "properties_name": "1627207:28341:颜色分类:黑色;20509:28315:尺码:L"}
      ]}
    }
  }
}`

const singularResponse = `{
  "data": {
    "item": {
      "item_id": "6103",
      "title": "Linen shirt",
      "price": 12000,
      "pic_url": "https://img.example.com/one.jpg",
      "item_img": {"url": "https://img.example.com/two.jpg"},
      "sku": {"sku_id": "21", "quantity": 7, "props": {"color": "white", "size": "XL"}}
    }
  }
}`

func TestNormalizeShapes(t *testing.T) {
	t.Run("Flat", func(t *testing.T) {
		l := Normalize(decode(t, flatResponse))
		require.NotNil(t, l)

		assert.Equal(t, "6101", l.ItemID)
		assert.Equal(t, "Studio A", l.ShopName)
		assert.InDelta(t, 259.0, l.BasePrice, 1e-9)
		assert.Equal(t, []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}, l.Images)
		assert.Equal(t, []string{"https://img.example.com/desc1.jpg", "https://img.example.com/desc2.jpg"}, l.DescriptionImages)

		require.Len(t, l.SKUs, 2)
		assert.Equal(t, "灰-现货", l.SKUs[0].Color())
		assert.Equal(t, "S", l.SKUs[0].Size())
		assert.Equal(t, "https://img.example.com/gray.jpg", l.SKUs[0].Image)
		assert.Equal(t, 5, l.SKUs[1].Stock)
		// Missing SKU price falls back to the listing price.
		assert.InDelta(t, 259.0, l.SKUs[1].Price, 1e-9)
	})

	t.Run("Wrapped", func(t *testing.T) {
		l := Normalize(decode(t, wrappedResponse))
		require.NotNil(t, l)

		assert.Equal(t, "6102", l.ItemID)
		assert.Equal(t, []string{"https://img.example.com/main.jpg", "https://img.example.com/side.jpg"}, l.Images)
		require.Len(t, l.SKUs, 1)
		assert.Equal(t, "黑色", l.SKUs[0].Color())
		assert.Equal(t, "L", l.SKUs[0].Size())
		assert.Equal(t, "https://img.example.com/black.jpg", l.SKUs[0].Image)
		assert.InDelta(t, 999.0, l.SKUs[0].Price, 1e-9)
	})

	t.Run("Singular", func(t *testing.T) {
		l := Normalize(decode(t, singularResponse))
		require.NotNil(t, l)

		assert.Equal(t, "6103", l.ItemID)
		assert.Equal(t, []string{"https://img.example.com/one.jpg", "https://img.example.com/two.jpg"}, l.Images)
		require.Len(t, l.SKUs, 1)
		assert.Equal(t, "white", l.SKUs[0].Color())
		assert.Equal(t, "XL", l.SKUs[0].Size())
		assert.Equal(t, "CNY", l.Currency)
	})

	t.Run("PropsList", func(t *testing.T) {
		l := Normalize(decode(t, `{
  "data": {
    "item": {
      "num_iid": "6104",
      "title": "Wool coat",
      "props_list": {"1627207:28341": "颜色:黑色", "20509:28315": "尺码:M"},
      "sku": [
        {"sku_id": "31", "properties": "1627207:28341;20509:28315", "quantity": 2},
        {"properties": "1627207:99999"}
      ]
    }
  }
}`))
		require.NotNil(t, l)

		require.Len(t, l.SKUs, 1)
		assert.Equal(t, "黑色", l.SKUs[0].Color())
		assert.Equal(t, "M", l.SKUs[0].Size())
		assert.Equal(t, 2, l.SKUs[0].Stock)
	})

	t.Run("NoItem", func(t *testing.T) {
		assert.Nil(t, Normalize(decode(t, `{"data": {"total": 0}}`)))
	})
}

func TestParsePropertiesName(t *testing.T) {
	props := parsePropertiesName("1627207:28341:颜色分类:黑色:加绒;20509:28315:尺码:L;")
	require.Len(t, props, 2)
	assert.Equal(t, models.Property{Name: "颜色分类", Value: "黑色:加绒"}, props[0])
	assert.Equal(t, models.Property{Name: "尺码", Value: "L"}, props[1])
}

func TestSign(t *testing.T) {
	params := map[string]string{"b": "2", "a": "1", "sign": "ignored"}
	s1 := Sign(params, "secret")
	s2 := Sign(map[string]string{"a": "1", "b": "2"}, "secret")

	assert.Equal(t, s1, s2)
	assert.Len(t, s1, 64)
	assert.NotEqual(t, s1, Sign(map[string]string{"a": "1", "b": "2"}, "other"))
}

func newTestConnector(url string) *Connector {
	return New(&config.Config{
		MarketplaceBaseURL:   url,
		MarketplaceAppKey:    "key",
		MarketplaceAppSecret: "secret",
		MarketplaceMethod:    "item.detail.get",
	}, logger.Nop())
}

func TestFetchListing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "6101", r.PostForm.Get("num_iid"))
			assert.Equal(t, "key", r.PostForm.Get("app_key"))

			params := map[string]string{}
			for k := range r.PostForm {
				params[k] = r.PostForm.Get(k)
			}
			assert.Equal(t, Sign(params, "secret"), r.PostForm.Get("sign"))

			_, _ = w.Write([]byte(flatResponse))
		}))
		defer srv.Close()

		l, err := newTestConnector(srv.URL).FetchListing(context.Background(), "6101")
		require.NoError(t, err)
		assert.Equal(t, "羊毛针织开衫", l.Title)
	})

	t.Run("EmptyTitleIsNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"item": {"num_iid": "1", "title": "", "images": []}}`))
		}))
		defer srv.Close()

		_, err := newTestConnector(srv.URL).FetchListing(context.Background(), "1")
		require.ErrorIs(t, err, models.ErrSourceNotFound)
	})

	t.Run("ErrorResponseNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error_response": {"code": 15, "sub_code": "isv.item-not-exist", "sub_msg": "item not exist"}}`))
		}))
		defer srv.Close()

		_, err := newTestConnector(srv.URL).FetchListing(context.Background(), "1")
		require.ErrorIs(t, err, models.ErrSourceNotFound)
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestConnector(srv.URL).FetchListing(context.Background(), "1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrSourceNotFound)
	})
}

func TestExtractDescriptionImages(t *testing.T) {
	desc := `<div><img src="//cdn.example.com/size_chart.jpg"/>
	<img src="https://cdn.example.com/icon_arrow.png">
	<img src="https://cdn.example.com/detail_40x40.jpg">
	<img src="https://cdn.example.com/detail_790x1000.jpg">
	<script>document.write('<img src="https://evil.example.com/x.jpg">')</script></div>`

	got := ExtractDescriptionImages(desc)
	assert.Equal(t, []string{
		"https://cdn.example.com/size_chart.jpg",
		"https://cdn.example.com/detail_790x1000.jpg",
	}, got)
	assert.Nil(t, ExtractDescriptionImages("   "))
}
