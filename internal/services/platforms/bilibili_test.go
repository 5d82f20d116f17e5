package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBVID = "BV1xx411c7mD"

func newBilibiliServer(t *testing.T, subtitles string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testBVID, r.URL.Query().Get("bvid"))
		assert.Contains(t, r.Header.Get("Referer"), "/video/"+testBVID)
		assert.Equal(t, "SESSDATA=sess; bili_jct=jct; buvid3=buv", r.Header.Get("Cookie"))
		fmt.Fprint(w, `{"code":0,"message":"0","data":{"bvid":"BV1xx411c7mD","cid":4242,"title":"美股复盘","pubdate":1760800000,"owner":{"mid":1515375273,"name":"财经UP"}}}`)
	})
	mux.HandleFunc("/x/player/v2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4242", r.URL.Query().Get("cid"))
		fmt.Fprintf(w, `{"code":0,"data":{"subtitle":{"subtitles":%s}}}`, fmt.Sprintf(subtitles, server.URL))
	})
	mux.HandleFunc("/sub.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"body":[{"from":0,"to":1,"content":"大家好"},{"from":1,"to":2,"content":"今天聊英伟达"}]}`)
	})
	mux.HandleFunc("/x/player/playurl", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "16", r.URL.Query().Get("fnval"))
		fmt.Fprint(w, `{"code":0,"data":{"dash":{"audio":[
{"id":30216,"baseUrl":"https://upos.example/low.m4s","bandwidth":67000},
{"id":30280,"baseUrl":"https://upos.example/high.m4s","bandwidth":190000}]}}}`)
	})
	mux.HandleFunc("/x/web-interface/nav", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-101,"message":"账号未登录","data":{"isLogin":false,"wbi_img":{
"img_url":"https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png",
"sub_url":"https://i0.hdslb.com/bfs/wbi/4932caff0ff746eab6f01bf08b70ac45.png"}}}`)
	})
	mux.HandleFunc("/x/space/wbi/arc/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1515375273", q.Get("mid"))
		assert.Equal(t, "10", q.Get("ps"))
		assert.NotEmpty(t, q.Get("w_rid"))
		assert.NotEmpty(t, q.Get("wts"))
		fmt.Fprint(w, `{"code":0,"data":{"list":{"vlist":[
{"bvid":"BV1aa","title":"new","created":1760850000,"author":"财经UP","mid":1515375273},
{"bvid":"BV1bb","title":"old","created":1760600000,"author":"财经UP","mid":1515375273}]}}}`)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestBilibili(server *httptest.Server) *Bilibili {
	return NewBilibili(BilibiliConfig{
		APIBaseURL:        server.URL,
		WebBaseURL:        server.URL,
		SESSDATA:          "sess",
		BiliJCT:           "jct",
		Buvid3:            "buv",
		RequestsPerSecond: 1000,
	})
}

func TestBilibili_Captions(t *testing.T) {
	server := newBilibiliServer(t, `[{"lan":"ai-zh","subtitle_url":"%s/sub.json"}]`)
	bili := newTestBilibili(server)

	text, err := bili.Captions(context.Background(), "https://www.bilibili.com/video/"+testBVID)
	require.NoError(t, err)
	assert.Equal(t, "大家好 今天聊英伟达", text)
}

func TestBilibili_Captions_NoSubtitles(t *testing.T) {
	server := newBilibiliServer(t, `[]%.0s`)
	bili := newTestBilibili(server)

	_, err := bili.Captions(context.Background(), "https://www.bilibili.com/video/"+testBVID)
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestBilibili_Describe(t *testing.T) {
	server := newBilibiliServer(t, `[]%.0s`)
	bili := newTestBilibili(server)

	info, err := bili.Describe(context.Background(), "https://www.bilibili.com/video/"+testBVID)
	require.NoError(t, err)
	assert.Equal(t, "美股复盘", info.Title)
	assert.Equal(t, "财经UP", info.Uploader)
	assert.Equal(t, int64(1760800000), info.PublishedAt.Unix())
}

func TestBilibili_AudioStreamURL(t *testing.T) {
	server := newBilibiliServer(t, `[]%.0s`)
	bili := newTestBilibili(server)

	streamURL, err := bili.AudioStreamURL(context.Background(), testBVID)
	require.NoError(t, err)
	assert.Equal(t, "https://upos.example/high.m4s", streamURL)

	headers := bili.Headers(testBVID)
	assert.Equal(t, server.URL+"/video/"+testBVID+"/", headers["Referer"])
	assert.NotEmpty(t, headers["Cookie"])
}

func TestBilibili_ListUploads(t *testing.T) {
	server := newBilibiliServer(t, `[]%.0s`)
	bili := newTestBilibili(server)

	uploads, err := bili.ListUploads(context.Background(), 1515375273, 10)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "BV1aa", uploads[0].BVID)
	assert.Equal(t, int64(1760850000), uploads[0].Created)
	assert.Equal(t, "财经UP", uploads[0].Author)
}

func TestBilibili_APIErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-404,"message":"啥都木有"}`)
	}))
	defer server.Close()

	bili := NewBilibili(BilibiliConfig{APIBaseURL: server.URL, RequestsPerSecond: 1000})
	_, err := bili.View(context.Background(), testBVID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-404")
}

func TestSignWBI(t *testing.T) {
	key := mixinKey("7cd084941338484aae1ad9425b84077c" + "4932caff0ff746eab6f01bf08b70ac45")
	assert.Equal(t, "ea1db124af3c7062474693fa704f4ff8", key)

	params := url.Values{"foo": {"114"}, "bar": {"514"}, "zab": {"1919810"}}
	signed := signWBI(params, key, time.Unix(1702204169, 0))
	assert.Equal(t, "1702204169", signed.Get("wts"))
	assert.Equal(t, "8f6f2b5b3d485fe1886cec6a0be8c5d4", signed.Get("w_rid"))
	assert.Empty(t, params.Get("wts"), "input params must not be modified")
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "abc", keyFromURL("https://i0.hdslb.com/bfs/wbi/abc.png"))
	assert.Equal(t, "", keyFromURL(""))
}
