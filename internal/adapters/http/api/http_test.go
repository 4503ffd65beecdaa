package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/alpine/internal/adapters/http/api"
	service "github.com/okian/alpine/internal/app"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/qualifier"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	individual standings.Leaderboard
	team       []standings.TeamStanding
	qualifiers qualifier.Result
	summary    model.SeasonSummary
	races      []model.RaceInfo
	raceResult []model.PlacementRecord
	err        error

	uploadErr error
	duplicate bool

	gotCategory types.Category
	gotRace     int
	gotUpload   struct {
		name     string
		body     string
		run      int
		location string
	}
}

func (m *mockDeps) Individual(_ context.Context, cat types.Category) (standings.Leaderboard, error) {
	m.gotCategory = cat
	return m.individual, m.err
}

func (m *mockDeps) Team(_ context.Context, gender types.Gender, sport types.Sport) ([]standings.TeamStanding, error) {
	m.gotCategory = types.Category{Gender: gender, Sport: sport}
	return m.team, m.err
}

func (m *mockDeps) Qualifiers(_ context.Context, cat types.Category) (qualifier.Result, error) {
	m.gotCategory = cat
	return m.qualifiers, m.err
}

func (m *mockDeps) Summary(context.Context) (model.SeasonSummary, error) {
	return m.summary, m.err
}

func (m *mockDeps) Races(context.Context) ([]model.RaceInfo, error) {
	return m.races, m.err
}

func (m *mockDeps) RaceResults(_ context.Context, cat types.Category, raceNumber int) ([]model.PlacementRecord, error) {
	m.gotCategory = cat
	m.gotRace = raceNumber
	return m.raceResult, m.err
}

func (m *mockDeps) IndividualCSV(_ context.Context, cat types.Category) ([]byte, error) {
	m.gotCategory = cat
	return []byte("place,first_name\n"), m.err
}

func (m *mockDeps) TeamCSV(_ context.Context, gender types.Gender, sport types.Sport) ([]byte, error) {
	m.gotCategory = types.Category{Gender: gender, Sport: sport}
	return []byte("place,school\n"), m.err
}

func (m *mockDeps) SubmitUpload(_ context.Context, name string, body []byte, run int, location string) (model.Upload, bool, error) {
	m.gotUpload.name = name
	m.gotUpload.body = string(body)
	m.gotUpload.run = run
	m.gotUpload.location = location
	if m.uploadErr != nil {
		return model.Upload{}, false, m.uploadErr
	}
	return model.Upload{ID: "u-1", Digest: "abc"}, m.duplicate, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]interface{} {
	return m.stats
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := &mockDeps{}
		stats := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		h := api.NewServer(deps, stats, api.WithLogger(logger.Nop()), api.WithMaxUploadBytes(64)).Handler()

		Convey("Then health and stats respond", func() {
			w := serve(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")

			w = serve(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then metrics are exposed", func() {
			w := serve(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then unknown paths are 404", func() {
			w := serve(h, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When requesting an individual leaderboard", func() {
			deps.individual = standings.Leaderboard{RaceCount: 2, Counting: 3, Athletes: []standings.AthleteStanding{{
				Rank: 1, FirstName: "Ava", LastName: "Stone", TotalPoints: 90,
				Results: []standings.Result{{RaceNumber: 1, Points: 50}, {RaceNumber: 2, Points: 40}},
			}}}
			w := serve(h, http.MethodGet, "/api/individual/Girls/ski/HS", "")

			Convey("Then the category is parsed case-insensitively", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotCategory, ShouldResemble, types.Category{Gender: types.Girls, Sport: types.Ski, Division: types.HS})
				body := decode(w)
				So(body["race_count"], ShouldEqual, 2.0)
				So(body["counting_results"], ShouldEqual, 3.0)
				So(body["athletes"], ShouldHaveLength, 1)
			})
		})

		Convey("When the category is invalid", func() {
			for _, target := range []string{
				"/api/individual/men/ski/hs",
				"/api/individual/girls/luge/hs",
				"/api/qualifiers/girls/ski/varsity",
				"/api/team/boys/sled",
				"/export/coed/ski/hs",
			} {
				w := serve(h, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "invalid_parameters")
			}
		})

		Convey("When a leaderboard is empty", func() {
			w := serve(h, http.MethodGet, "/api/team/boys/snowboard", "")

			Convey("Then teams encode as an empty list", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"teams":[]`)
			})
		})

		Convey("When requesting qualifiers", func() {
			deps.qualifiers = qualifier.Result{EventDate: "2026-02-14", HasData: true}
			w := serve(h, http.MethodGet, "/api/qualifiers/boys/snowboard/open", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["has_data"], ShouldEqual, true)
			So(body["event_date"], ShouldEqual, "2026-02-14")
			So(body["team"], ShouldBeEmpty)
		})

		Convey("When requesting one race", func() {
			tm := 41.2
			deps.raceResult = []model.PlacementRecord{{
				FirstName: "Ava", LastName: "Stone", Place: 1, Points: 50,
				TimeSeconds: &tm, RaceID: 7, EventDate: "2026-01-10",
			}}

			Convey("Then the race number is passed through", func() {
				w := serve(h, http.MethodGet, "/api/races/girls/ski/hs/2", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotRace, ShouldEqual, 2)
				body := decode(w)
				So(body["race_id"], ShouldEqual, 7.0)
				So(body["results"], ShouldHaveLength, 1)
			})

			Convey("Then a malformed race number is 400", func() {
				for _, n := range []string{"zero", "0", "-1"} {
					w := serve(h, http.MethodGet, "/api/races/girls/ski/hs/"+n, "")
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				}
			})

			Convey("Then a missing race is 404", func() {
				deps.err = service.ErrRaceNotFound
				w := serve(h, http.MethodGet, "/api/races/girls/ski/hs/9", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the service fails", func() {
			deps.err = errors.New("database down")
			w := serve(h, http.MethodGet, "/api/summary", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(w)["code"], ShouldEqual, "internal_error")
		})

		Convey("When downloading exports", func() {
			w := serve(h, http.MethodGet, "/export/girls/ski/hs", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "girls_ski_hs_individual.csv")

			w = serve(h, http.MethodGet, "/export/boys/snowboard/team", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "place,school\n")
			So(deps.gotCategory.Sport, ShouldEqual, types.Snowboard)
		})

		Convey("When uploading a result file", func() {
			target := "/api/uploads?name=20260110-gs.csv&run=1&location=Summit"

			Convey("Then a new file is accepted", func() {
				w := serve(h, http.MethodPost, target, "a,b,c")
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w)["id"], ShouldEqual, "u-1")
				So(deps.gotUpload.name, ShouldEqual, "20260110-gs.csv")
				So(deps.gotUpload.body, ShouldEqual, "a,b,c")
				So(deps.gotUpload.run, ShouldEqual, 1)
				So(deps.gotUpload.location, ShouldEqual, "Summit")
			})

			Convey("Then a duplicate is acknowledged with 200", func() {
				deps.duplicate = true
				w := serve(h, http.MethodPost, target, "a,b,c")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
			})

			Convey("Then a full queue is 429", func() {
				deps.uploadErr = service.ErrBackpressure
				w := serve(h, http.MethodPost, target, "a,b,c")
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
			})

			Convey("Then invalid input is 400", func() {
				w := serve(h, http.MethodPost, "/api/uploads?name=x.csv&run=first", "a")
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				w = serve(h, http.MethodPost, target, strings.Repeat("x", 65))
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				deps.uploadErr = service.ErrBadRequest
				w = serve(h, http.MethodPost, target, "a")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then uploads before start are 503", func() {
				deps.uploadErr = service.ErrNotStarted
				w := serve(h, http.MethodPost, target, "a")
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})

			Convey("Then GET is not allowed", func() {
				w := serve(h, http.MethodGet, "/api/uploads", "")
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestServer_WithService(t *testing.T) {
	Convey("Given an API server over a real service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		body := "Results,,,,,,,,\n" +
			"Place,Bib,Gate,First,Last,School,Racing Category,Time,Notes\n" +
			"1,101,,Ava,Stone,North High,SKI (Girls): High School Div,41.20,\n" +
			"2,102,,Bea,Lake,South High,SKI (Girls): High School Div,42.05,\n"
		b, err := service.ParseBatch(strings.NewReader(body), "20260110-gs.csv", 0, "")
		So(err, ShouldBeNil)
		_, err = svc.Ingest(ctx, []service.Batch{b})
		So(err, ShouldBeNil)

		h := api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Handler()

		Convey("When reading the individual leaderboard", func() {
			w := serve(h, http.MethodGet, "/api/individual/girls/ski/hs", "")

			Convey("Then both athletes are ranked", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Athletes []standings.AthleteStanding `json:"athletes"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Athletes, ShouldHaveLength, 2)
				So(resp.Athletes[0].FirstName, ShouldEqual, "Ava")
				So(resp.Athletes[0].TotalPoints, ShouldEqual, 50)
			})
		})

		Convey("When the newest races had no scoring finisher", func() {
			// four more scoring races, then one only an unplaced finisher entered
			for _, name := range []string{"20260111-gs.csv", "20260112-gs.csv", "20260113-gs.csv", "20260114-gs.csv"} {
				b, err := service.ParseBatch(strings.NewReader(body), name, 0, "")
				So(err, ShouldBeNil)
				_, err = svc.Ingest(ctx, []service.Batch{b})
				So(err, ShouldBeNil)
			}
			tail := "Results,,,,,,,,\n" +
				"Place,Bib,Gate,First,Last,School,Racing Category,Time,Notes\n" +
				"31,131,,Cal,Moss,West High,SKI (Girls): High School Div,58.00,\n"
			b, err := service.ParseBatch(strings.NewReader(tail), "20260115-gs.csv", 0, "")
			So(err, ShouldBeNil)
			_, err = svc.Ingest(ctx, []service.Batch{b})
			So(err, ShouldBeNil)

			Convey("Then the race count still includes that race", func() {
				w := serve(h, http.MethodGet, "/api/individual/girls/ski/hs", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decode(w)
				So(resp["race_count"], ShouldEqual, 6.0)
				So(resp["counting_results"], ShouldEqual, 4.0)
				So(resp["athletes"], ShouldHaveLength, 2)
			})

			Convey("Then the export has a column for every race", func() {
				w := serve(h, http.MethodGet, "/export/girls/ski/hs", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldStartWith,
					"place,first_name,last_name,school,race_1,race_2,race_3,race_4,race_5,race_6,total_points\n"+
						"1,Ava,Stone,North High,50,50,50,50,50,,200\n")
			})
		})

		Convey("When reading a race that does not exist", func() {
			w := serve(h, http.MethodGet, "/api/races/girls/ski/hs/2", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When uploading before the service is started", func() {
			w := serve(h, http.MethodPost, "/api/uploads?name=20260117.csv", body)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When reading the team export", func() {
			w := serve(h, http.MethodGet, "/export/girls/ski/team", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldStartWith, "place,school,total_points,contributing_scores\n1,North High,50,")
		})
	})
}
