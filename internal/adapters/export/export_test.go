package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
)

func TestFormatPoints(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{120, "120"},
		{0, "0"},
		{12.5, "12.5"},
		{99.25, "99.25"},
		{1e6, "1000000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatPoints(tt.in))
		})
	}
}

func TestWriteIndividual(t *testing.T) {
	rows := []standings.AthleteStanding{
		{
			Rank: 1, FirstName: "Ava", LastName: "Stone", School: "North", TotalPoints: 90,
			Results: []standings.Result{{RaceNumber: 1, Points: 50}, {RaceNumber: 3, Points: 40}},
		},
		{
			Rank: 2, FirstName: "Bea", LastName: "Lake", School: "South, East", TotalPoints: 40,
			Results: []standings.Result{{RaceNumber: 2, Points: 40}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIndividual(&buf, standings.Leaderboard{RaceCount: 3, Counting: 3, Athletes: rows}))
	require.Equal(t,
		"place,first_name,last_name,school,race_1,race_2,race_3,total_points\n"+
			"1,Ava,Stone,North,50,,40,90\n"+
			"2,Bea,Lake,\"South, East\",,40,,40\n",
		buf.String())
}

func TestWriteIndividualEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIndividual(&buf, standings.Leaderboard{}))
	require.Equal(t, "place,first_name,last_name,school,total_points\n", buf.String())
}

func TestWriteIndividualKeepsRacesWithoutScorers(t *testing.T) {
	// race 2 was held but nobody on the board scored in it
	rows := []standings.AthleteStanding{{
		Rank: 1, FirstName: "Ava", LastName: "Stone", School: "North", TotalPoints: 50,
		Results: []standings.Result{{RaceNumber: 1, Points: 50}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteIndividual(&buf, standings.Leaderboard{RaceCount: 2, Counting: 3, Athletes: rows}))
	require.Equal(t,
		"place,first_name,last_name,school,race_1,race_2,total_points\n"+
			"1,Ava,Stone,North,50,,50\n",
		buf.String())
}

func TestWriteTeam(t *testing.T) {
	rows := []standings.TeamStanding{
		{Rank: 0, School: "Exhibition Team", TotalPoints: 100, Contributing: []standings.ContributingScore{
			{Score: 50, AthleteName: "Ex One", RaceNumber: 1, Division: types.HS},
			{Score: 50, AthleteName: "Ex Two", RaceNumber: 2, Division: types.Open},
		}},
		{Rank: 1, School: "North", TotalPoints: 80.5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTeam(&buf, rows))
	require.Equal(t,
		"place,school,total_points,contributing_scores\n"+
			"0,Exhibition Team,100,50 Ex One (R1 HS); 50 Ex Two (R2 OPEN)\n"+
			"1,North,80.5,\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteErrors(t *testing.T) {
	err := WriteTeam(failingWriter{}, nil)
	require.ErrorIs(t, err, ErrWriteCSV)
}

func TestFilenames(t *testing.T) {
	cat := types.Category{Gender: types.Boys, Sport: types.Snowboard, Division: types.Open}
	require.Equal(t, "boys_snowboard_open_individual.csv", IndividualFilename(cat))
	require.Equal(t, "girls_ski_team.csv", TeamFilename(types.Girls, types.Ski))
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Publisher(t *testing.T) {
	fake := &fakeS3{}
	p := &S3Publisher{client: fake, bucket: "standings", prefix: "2026"}

	require.NoError(t, p.Publish(context.Background(), "girls_ski_team.csv", ContentType, []byte("a,b\n")))
	require.Equal(t, "standings", aws.ToString(fake.in.Bucket))
	require.Equal(t, "2026/girls_ski_team.csv", aws.ToString(fake.in.Key))
	require.Equal(t, ContentType, aws.ToString(fake.in.ContentType))
	require.Equal(t, "a,b\n", string(fake.body))

	fake.err = errors.New("access denied")
	require.Error(t, p.Publish(context.Background(), "x.csv", ContentType, nil))

	require.Equal(t, "x.csv", (&S3Publisher{}).Key("x.csv"))
}

func TestNewS3PublisherConfig(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), S3Config{})
	require.ErrorIs(t, err, ErrPublisherConfig)

	_, err = NewS3Publisher(context.Background(), S3Config{Bucket: "b", AccessKeyID: "only-id"})
	require.ErrorIs(t, err, ErrPublisherConfig)

	p, err := NewS3Publisher(context.Background(), S3Config{
		Bucket: "b", Endpoint: "http://localhost:9000", AccessKeyID: "id", SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, p)
}
