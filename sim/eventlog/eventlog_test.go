package eventlog

import (
	"bufio"
	"database/sql"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/terminal-sim/terminal-sim/sim/trace"
)

func sampleRecords() []trace.EventRecord {
	return []trace.EventRecord{
		{RunID: "r1", Seq: 1, Time: 0, Kind: trace.KindArrive, Vessel: 1, Message: "Vessel_1 arrives."},
		{RunID: "r1", Seq: 2, Time: 0, Kind: trace.KindBerth, Vessel: 1, Message: "Vessel_1 berths. (Waited 0.00 minutes)"},
		{RunID: "r1", Seq: 3, Time: 0, Kind: trace.KindCraneStart, Vessel: 1, Container: 1, Message: "Crane starts lifting container 1 from Vessel_1."},
		{RunID: "r1", Seq: 4, Time: 3.5, Kind: trace.KindTruckStart, Vessel: 1, Container: 1, Message: "Truck starts transporting container 1 from Vessel_1."},
	}
}

var _ = Describe("JSONLinesWriter", func() {
	var (
		dir    string
		writer *JSONLinesWriter
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "eventlog-jsonl")
		Expect(err).NotTo(HaveOccurred())
		writer, err = NewJSONLinesWriter(filepath.Join(dir, "trace.jsonl"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should write one decodable line per record", func() {
		for _, rec := range sampleRecords() {
			writer.Record(rec)
		}
		Expect(writer.Close()).To(Succeed())

		f, err := os.Open(writer.Path())
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		var got []trace.EventRecord
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec trace.EventRecord
			Expect(json.Unmarshal(scanner.Bytes(), &rec)).To(Succeed())
			got = append(got, rec)
		}
		Expect(scanner.Err()).NotTo(HaveOccurred())
		Expect(got).To(Equal(sampleRecords()))
	})

	It("should ignore records after Close", func() {
		Expect(writer.Close()).To(Succeed())
		writer.Record(sampleRecords()[0])
		Expect(writer.Close()).To(Succeed())

		info, err := os.Stat(writer.Path())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(BeZero())
	})
})

var _ = Describe("SQLiteWriter", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "eventlog-sqlite")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should store every record across batches", func() {
		path := filepath.Join(dir, "trace.sqlite3")
		writer, err := NewSQLiteWriter(path)
		Expect(err).NotTo(HaveOccurred())
		writer.SetBatchSize(3)

		for _, rec := range sampleRecords() {
			writer.Record(rec)
		}
		Expect(writer.Close()).To(Succeed())

		db, err := sql.Open("sqlite", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		rows, err := db.Query(`SELECT run_id, seq, time, kind, vessel, container, message FROM events ORDER BY seq`)
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()

		var got []trace.EventRecord
		for rows.Next() {
			var rec trace.EventRecord
			var kind string
			Expect(rows.Scan(&rec.RunID, &rec.Seq, &rec.Time, &kind, &rec.Vessel, &rec.Container, &rec.Message)).To(Succeed())
			rec.Kind = trace.EventKind(kind)
			got = append(got, rec)
		}
		Expect(rows.Err()).NotTo(HaveOccurred())
		Expect(got).To(Equal(sampleRecords()))
	})

	It("should refuse to overwrite an existing file", func() {
		path := filepath.Join(dir, "exists.sqlite3")
		Expect(os.WriteFile(path, []byte("x"), 0o600)).To(Succeed())

		_, err := NewSQLiteWriter(path)
		Expect(err).To(MatchError(ContainSubstring("already exists")))
	})
})

var _ = Describe("LogrusSink", func() {
	It("should log the time and message with fields", func() {
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		sink := &LogrusSink{Logger: logger, Level: logrus.InfoLevel}

		sink.Record(sampleRecords()[3])

		entry := hook.LastEntry()
		Expect(entry).NotTo(BeNil())
		Expect(entry.Level).To(Equal(logrus.InfoLevel))
		Expect(entry.Message).To(Equal("3.50: Truck starts transporting container 1 from Vessel_1."))
		Expect(entry.Data).To(HaveKeyWithValue("vessel", 1))
		Expect(entry.Data).To(HaveKeyWithValue("container", 1))
		Expect(entry.Data).To(HaveKeyWithValue("kind", trace.KindTruckStart))
	})

	It("should omit the container field for vessel events", func() {
		logger, hook := logtest.NewNullLogger()
		sink := &LogrusSink{Logger: logger, Level: logrus.InfoLevel}

		sink.Record(sampleRecords()[0])

		Expect(hook.LastEntry().Data).NotTo(HaveKey("container"))
	})
})

var _ = Describe("Multi", func() {
	It("should forward to every sink in order and skip nil", func() {
		a := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelContainer})
		b := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelVessel})

		sink := Multi(a, nil, b)
		for _, rec := range sampleRecords() {
			sink.Record(rec)
		}

		Expect(a.Records).To(HaveLen(4))
		Expect(b.Records).To(HaveLen(2))
	})

	It("should return a lone sink unwrapped", func() {
		a := trace.NewSimulationTrace(trace.TraceConfig{})
		Expect(Multi(nil, a)).To(BeIdenticalTo(a))
	})
})
