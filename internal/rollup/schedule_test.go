package rollup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScheduleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileSystemScheduleRepository_LoadsSchedules(t *testing.T) {
	dir := t.TempDir()
	writeScheduleFile(t, dir, "daily.yaml", "name: daily-rollup\ncadence: daily\nat: \"01:00\"\n")
	writeScheduleFile(t, dir, "weekly.yml", "name: weekly-rollup\ncadence: weekly\nat: \"02:30\"\n")
	writeScheduleFile(t, dir, "notes.txt", "ignored")

	repo, err := NewFileSystemScheduleRepository(dir)
	require.NoError(t, err)

	schedules := repo.GetSchedules()
	require.Len(t, schedules, 2)

	daily, err := repo.Get(context.Background(), "daily-rollup")
	require.NoError(t, err)
	require.Equal(t, CadenceDaily, daily.Cadence)
	require.Equal(t, 1, daily.Hour)
	require.Equal(t, 0, daily.Minute)
	require.NotEmpty(t, daily.Fingerprint)

	weekly, err := repo.Get(context.Background(), "weekly-rollup")
	require.NoError(t, err)
	require.Equal(t, 2, weekly.Hour)
	require.Equal(t, 30, weekly.Minute)
	require.NotEqual(t, daily.Fingerprint, weekly.Fingerprint)
}

func TestFileSystemScheduleRepository_MissingDirIsEmpty(t *testing.T) {
	repo, err := NewFileSystemScheduleRepository(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Empty(t, repo.GetSchedules())
}

func TestFileSystemScheduleRepository_RejectsBadCadence(t *testing.T) {
	dir := t.TempDir()
	writeScheduleFile(t, dir, "bad.yaml", "name: hourly\ncadence: hourly\nat: \"01:00\"\n")

	_, err := NewFileSystemScheduleRepository(dir)
	require.ErrorContains(t, err, "unsupported cadence")
}

func TestFileSystemScheduleRepository_RejectsBadTriggerTime(t *testing.T) {
	tests := []struct {
		name string
		at   string
	}{
		{name: "not a clock time", at: "noon"},
		{name: "hour out of range", at: "25:00"},
		{name: "minute out of range", at: "01:75"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScheduleFile(t, dir, "bad.yaml", "name: s\ncadence: daily\nat: \""+tc.at+"\"\n")

			_, err := NewFileSystemScheduleRepository(dir)
			require.Error(t, err)
		})
	}
}

func TestFileSystemScheduleRepository_RejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScheduleFile(t, dir, "a.yaml", "name: dup\ncadence: daily\nat: \"01:00\"\n")
	writeScheduleFile(t, dir, "b.yaml", "name: dup\ncadence: weekly\nat: \"02:00\"\n")

	_, err := NewFileSystemScheduleRepository(dir)
	require.ErrorContains(t, err, "duplicate schedule name")
}

func TestFileSystemScheduleRepository_SkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeScheduleFile(t, dir, "empty.yaml", "# placeholder\n")
	writeScheduleFile(t, dir, "real.yaml", "name: daily-rollup\ncadence: daily\nat: \"01:00\"\n")

	repo, err := NewFileSystemScheduleRepository(dir)
	require.NoError(t, err)
	require.Len(t, repo.GetSchedules(), 1)
}

func TestFileSystemScheduleRepository_ListFiltersByCadence(t *testing.T) {
	dir := t.TempDir()
	writeScheduleFile(t, dir, "daily.yaml", "name: daily-rollup\ncadence: daily\nat: \"01:00\"\n")
	writeScheduleFile(t, dir, "monthly.yaml", "name: monthly-rollup\ncadence: monthly\nat: \"03:00\"\n")

	repo, err := NewFileSystemScheduleRepository(dir)
	require.NoError(t, err)

	monthlies, err := repo.List(context.Background(), CadenceMonthly)
	require.NoError(t, err)
	require.Len(t, monthlies, 1)
	require.Equal(t, "monthly-rollup", monthlies[0].Name)

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
