/*
Command emi classifies meteorite specimens and simulates the atmospheric
entry of fireballs.

Contents

  Program overview
  Command line usage
  Configuration
  File formats
  Algorithm outline


Program overview

A specimen is described by whatever analytical measurements are available:
mineral chemistry, shock indicators, weathering indicators, isotopic
anomalies, highly siderophile element abundances, cosmogenic nuclide
concentrations and, for an observed fall, the entry trajectory.  Each
domain with data is scored by its own engine.  The scores are fused into
the Enhanced Meteorite Index (EMI), a number in [0,1] where low values mean
an unambiguous classification and high values a specimen that fits no
known group well.

  EMI < 0.20   UNAMBIGUOUS           Direct MetBull submission
  EMI < 0.40   HIGH CONFIDENCE       Standard expert review
  EMI < 0.60   BOUNDARY ZONE         Multi-parameter disambiguation required
  EMI < 0.80   ANOMALOUS             Expert committee + isotopic verification
  otherwise    UNGROUPED CANDIDATE   Full consortium characterization

Sample run:

  $ emi calculate --mcc 0.3 --smg 0.2 --atp 3000
  EMI 0.302 HIGH CONFIDENCE
  Action: Standard expert review
    atp       3000  normalized 0.500  weight 0.182
    mcc        0.3  normalized 0.300  weight 0.473
    smg        0.2  normalized 0.200  weight 0.345
  Missing: cnea iaf pbdr twi

Parameters not supplied drop out and the remaining weights are
renormalized, so the index stays comparable between specimens analyzed to
different extents.


Command line usage

  emi classify <specimen-file>...   classify specimens, one JSON line each
      --register                    also add them to the registry
      --export                      also write MetBull entries
      --summary                     also write a MetBull CSV summary
  emi calculate --mcc x ... --cnea x
                                    fuse raw parameter values
  emi fireball [--velocity --angle --diameter --composition ...]
                                    simulate one entry
  emi fireball --network name=file ... [--from t] [--to t]
                                    merge and simulate network reports
  emi validate --truth <group> <in-class> <out-of-class>
                                    Matthews correlation of predictions
  emi registry add|get|query|stats|export
                                    manage the specimen registry
  emi calib [--out file] [--show]   write or show the calibration

Validate measures how well emi picks out one group.  Prepare two specimen
files, one of specimens known to be in the group and one of specimens
known not to be.  Validate classifies both and prints the confusion table
and the Matthews correlation coefficient, a statistic that stays
meaningful even when the two files are of very different sizes.


Configuration

Global settings can be given as flags, as environment variables with the
prefix EMI_, or in a YAML file emi.yaml in the working directory (or named
with --config).

  key            flag            environment
  log.level      --log-level     EMI_LOG_LEVEL
  log.format     --log-format    EMI_LOG_FORMAT
  registry.dir   --registry      EMI_REGISTRY_DIR
  calib.file     --calib         EMI_CALIB_FILE
  workers        --workers       EMI_WORKERS
  metrics.file   --metrics-file  EMI_METRICS_FILE
  export.dir     --export-dir    EMI_EXPORT_DIR

Calibration tables, the group centroids, thresholds, weights and material
properties, have built in defaults.  calib.file can name a YAML file
overriding any part of them, see "emi calib --show" for the layout, or a
binary snapshot written by "emi calib".  Overrides are validated before
use.

When metrics.file is set, counts of classified specimens by band,
simulated entries, airbursts and classification latency are written there
in the Prometheus text format at the end of each run.


File formats

Specimen files are JSON or YAML, chosen by extension, holding one record
or a list of records:

  id: ALH-1
  name: Allan Hills 84001
  repository: ANSMET
  recovery_year: 1984
  mass_g: 120
  mineral: {fa: 18.5, fs: 16.5, d17O: 0.75}
  shock: {olivine_planar: 0.1}
  weathering: {metal_oxidation: 0.05}
  isotopes: {e50Ti: -0.6, e54Cr: -0.4}
  hse: {os: 480, ir: 470, pt: 1000}
  nuclides: {he3: 30, ne21: 7}
  entry: {velocity: 18.6, angle: 18.5, diameter: 19, composition: LL5}

The registry also imports CSV with a header row naming the metadata
columns id, name, collection, repository, country, group, recovery_date,
recovery_year and mass_g.

Network report files for fireball are JSON arrays of objects with id,
time (RFC 3339), velocity, angle, diameter, composition, altitude_start,
latitude, longitude and brightness.  Angles are in degrees.


Algorithm outline

MCC, mineral chemistry.  Stony specimens are placed in (Fa, Fs, Δ17O) space
and the Mahalanobis distance to each group centroid found.  Iron
specimens are classified on Ni alone.  The score falls linearly with the
distance to the nearest group.

SMG, shock.  Indicator values are mapped to shock pressures and combined
into a peak pressure, which gives the stage S1 to S6.

TWI, weathering.  A weighted index of weathering indicators, with a
terrestrial age estimate and grade W0 to W4/5.

IAF, isotopes.  Distance in the space of seven ε anomalies to the nearest
of eighteen group centroids, scored by a Gaussian in that group's
dispersion.  A very low score flags possible presolar material.

ATP, atmospheric entry.  An explicit time-stepped integration of surface
temperature and velocity along a straight inclined path, balancing
convective heating against radiation, conduction and vaporization.
Steps are subdivided where the losses are stiff, as for small fast
bodies.  Peak temperature enters EMI.  Integration continues a second
past the peak, and airbursts are detected from rapid cooling in that
time.  A burst is never given more energy than the body brought in.

PBDR, highly siderophile elements.  Depletion of abundances relative to
the chondritic reference indicates differentiation of the parent body.

CNEA, cosmic ray exposure.  Ages from each nuclide, with decay correction
for radioactive ones, are fused and checked for concordance.  A
discordant set suggests a multi-stage exposure history.

-------------
Public domain.
*/
package main
