package sqlinline

const QInsertVideoJob = `--sql d04db45b-a108-41e7-b04f-fce3ce8c3da4
insert into video_jobs (id, user_id, status, product_name, script, image_keys, provider, created_at, updated_at)
values ($1::uuid, $2::text, 'QUEUED', $3::text, $4::text, $5::jsonb, $6::text, now(), now())
returning created_at;
`

const QSelectVideoJob = `--sql 5c1009b5-2f00-4e4d-bc7a-22a63fef7b87
select id::text, user_id, status, product_name, script, image_keys, provider,
       coalesce(video_url, ''), coalesce(error_reason, ''), coalesce(error_message, ''),
       created_at, updated_at
from video_jobs
where id = $1::uuid
  and user_id = $2::text;
`

const QWorkerClaimVideoJob = `--sql adfdeae9-60f0-424d-a439-24121d889ae5
with next_job as (
    select id
    from video_jobs
    where status = 'QUEUED'
       or (status = 'RUNNING'
           and updated_at < now() - make_interval(secs => $1::double precision))
    order by created_at asc
    for update skip locked
    limit 1
)
update video_jobs
set status = 'RUNNING', updated_at = now()
where id in (select id from next_job)
returning id::text, user_id, status, product_name, script, image_keys, provider,
          '', '', '', created_at, updated_at;
`

const QFinishVideoJob = `--sql 4d457c7e-72ca-432b-b348-80395211e459
update video_jobs
set status = $2::text,
    video_url = nullif($3::text, ''),
    error_reason = nullif($4::text, ''),
    error_message = nullif($5::text, ''),
    updated_at = now()
where id = $1::uuid;
`
